package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeApplication(t *testing.T, body string) (LoanApplication, []string) {
	t.Helper()
	var w WireApplication
	require.NoError(t, json.Unmarshal([]byte(body), &w))
	return NormalizeApplication(w)
}

func TestNormalizeApplication_Fields(t *testing.T) {
	app, issues := decodeApplication(t, `{
		"applicationId": 42,
		"userId": "u-1",
		"name": "Asha",
		"profession": "Engineer",
		"purpose": "Home",
		"loanAmount": 250000.50,
		"creditScore": "712",
		"status": "PENDING",
		"createdAt": "2024-01-15T10:30:00Z"
	}`)

	assert.Empty(t, issues)
	assert.Equal(t, "42", app.ApplicationID)
	assert.Equal(t, "u-1", app.UserID)
	assert.Equal(t, "Asha", app.Name)
	assert.Equal(t, "Home", app.Purpose)
	assert.True(t, decimal.RequireFromString("250000.5").Equal(app.LoanAmount))
	assert.Equal(t, 712, app.CreditScore)
	assert.Equal(t, StatusPending, app.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), app.SubmittedAt)
	assert.Equal(t, "2024-01-15T10:30:00Z", app.RawTimestamp)
}

func TestNormalizeApplication_LoanAmount(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		wantIssue bool
	}{
		{"number", `1000`, "1000", false},
		{"numeric string", `"1500.25"`, "1500.25", false},
		{"thousands separator", `"1,500"`, "1500", false},
		{"garbage string", `"abc"`, "0", true},
		{"null", `null`, "0", true},
		{"object", `{"v":1}`, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, issues := decodeApplication(t, `{"applicationId":"a1","loanAmount":`+tt.raw+`}`)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(app.LoanAmount), "got %s", app.LoanAmount)
			if tt.wantIssue {
				require.Len(t, issues, 1)
				assert.Contains(t, issues[0], "loanAmount")
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestNormalizeApplication_Timestamp(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		want       time.Time
		wantIssues int
	}{
		{
			name: "createdAt preferred",
			body: `"createdAt":"2024-02-01T00:00:00","applicationDate":"2023-12-31"`,
			want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "empty createdAt falls back",
			body: `"createdAt":"","applicationDate":"2023-12-31"`,
			want: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "fractional zone-less",
			body: `"applicationDate":"2024-03-05T08:09:10.123456"`,
			want: time.Date(2024, 3, 5, 8, 9, 10, 123456000, time.UTC),
		},
		{
			name: "offset without colon",
			body: `"createdAt":"2024-03-05T08:09:10.000+0530"`,
			want: time.Date(2024, 3, 5, 2, 39, 10, 0, time.UTC),
		},
		{
			name: "offset without colon or fraction",
			body: `"createdAt":"2024-03-05T08:09:10-0700"`,
			want: time.Date(2024, 3, 5, 15, 9, 10, 0, time.UTC),
		},
		{
			name: "epoch millis",
			body: `"createdAt":1705276800000`,
			want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "jackson array",
			body: `"createdAt":[2024,6,30,12,0]`,
			want: time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "absent",
			body: `"name":"x"`,
		},
		{
			name:       "unparseable",
			body:       `"createdAt":"yesterday"`,
			wantIssues: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, issues := decodeApplication(t, `{"applicationId":"a1","loanAmount":1,`+tt.body+`}`)
			assert.Len(t, issues, tt.wantIssues)
			assert.True(t, tt.want.Equal(app.SubmittedAt), "got %s", app.SubmittedAt)
			assert.Equal(t, !tt.want.IsZero(), app.HasTimestamp())
		})
	}
}

func TestNormalizeApplication_KeepsUnknownStatus(t *testing.T) {
	app, _ := decodeApplication(t, `{"applicationId":"a1","loanAmount":1,"status":"ON_HOLD"}`)
	assert.Equal(t, Status("ON_HOLD"), app.Status)
	assert.False(t, app.Status.Valid())
}

func TestNormalizeEMI(t *testing.T) {
	var w WireEMI
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 7,
		"applicationId": "a1",
		"emiNumber": 2,
		"dueDate": "2024-05-01",
		"amount": "4561.20",
		"status": "PAID"
	}`), &w))

	emi, issues := NormalizeEMI(w)
	assert.Empty(t, issues)
	assert.Equal(t, "7", emi.ID)
	assert.Equal(t, 2, emi.EMINumber)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), emi.DueDate)
	assert.True(t, decimal.RequireFromString("4561.2").Equal(emi.Amount))
	assert.False(t, emi.Payable())
}

func TestNormalizeEMI_BadAmount(t *testing.T) {
	emi, issues := NormalizeEMI(WireEMI{
		ID:        json.RawMessage(`"r1"`),
		EMINumber: json.RawMessage(`1`),
		DueDate:   json.RawMessage(`"2024-05-01"`),
		Amount:    json.RawMessage(`"n/a"`),
		Status:    json.RawMessage(`"PENDING"`),
	})
	require.Len(t, issues, 1)
	assert.True(t, emi.Amount.IsZero())
	assert.True(t, emi.Payable())
}

func TestPrincipal(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.Valid())
	assert.False(t, (&Principal{ID: "u1"}).Valid())
	assert.False(t, (&Principal{Role: RoleAdmin}).Valid())
	assert.True(t, (&Principal{ID: "u1", Role: "USER"}).Valid())
	assert.False(t, (&Principal{ID: "u1", Role: "USER"}).IsAdmin())
	assert.True(t, (&Principal{ID: "u1", Role: RoleAdmin}).IsAdmin())
}

func TestPrincipal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Principal
	}{
		{"string id", `{"id":"u1","role":"USER"}`, Principal{ID: "u1", Role: "USER"}},
		{"numeric id", `{"id":42,"role":"ADMIN"}`, Principal{ID: "42", Role: RoleAdmin}},
		{"null id", `{"id":null,"role":"USER"}`, Principal{Role: "USER"}},
		{"missing role", `{"id":42}`, Principal{ID: "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Principal
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad Principal
	assert.Error(t, json.Unmarshal([]byte(`{"id":`), &bad))
}
