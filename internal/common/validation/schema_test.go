package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalSchema(t *testing.T) {
	schema := MustCompile(PrincipalSchema)

	tests := []struct {
		name      string
		document  string
		wantValid bool
		wantField string
	}{
		{"admin", `{"id":"u1","role":"ADMIN"}`, true, ""},
		{"extra fields allowed", `{"id":"u1","role":"USER","name":"Asha"}`, true, ""},
		{"missing role", `{"id":"u1"}`, false, "role"},
		{"empty id", `{"id":"","role":"USER"}`, false, "id"},
		{"numeric id", `{"id":7,"role":"USER"}`, true, ""},
		{"fractional id", `{"id":7.5,"role":"USER"}`, false, "id"},
		{"boolean id", `{"id":true,"role":"USER"}`, false, "id"},
		{"not an object", `[]`, false, "(root)"},
		{"malformed", `{"id":`, false, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.ValidateBytes([]byte(tt.document))
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, result.Errors)
				assert.True(t, result.HasErrors(tt.wantField), "errors: %v", result.GetErrorMessages())
			}
		})
	}
}

func TestSummaryInputSchema(t *testing.T) {
	schema := MustCompile(SummaryInputSchema)

	ok := schema.ValidateInput(map[string]interface{}{"userId": "u1", "role": "ADMIN", "statusFilter": "ALL"})
	assert.True(t, ok.Valid)

	numeric := schema.ValidateInput(map[string]interface{}{"userId": float64(42), "role": "USER"})
	assert.True(t, numeric.Valid, "errors: %v", numeric.GetErrorMessages())

	bad := schema.ValidateInput(map[string]interface{}{"role": "ADMIN", "searchQuery": 5})
	assert.False(t, bad.Valid)
	assert.True(t, bad.HasErrors("searchQuery"))
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}
