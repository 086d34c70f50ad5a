package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WireApplication is an application exactly as the loan service sends it.
// Records come from more than one backend code path, so the timestamp may be
// under createdAt or applicationDate and numbers may arrive as strings.
type WireApplication struct {
	ApplicationID   json.RawMessage `json:"applicationId"`
	UserID          json.RawMessage `json:"userId"`
	Name            json.RawMessage `json:"name"`
	Profession      json.RawMessage `json:"profession"`
	Purpose         json.RawMessage `json:"purpose"`
	LoanAmount      json.RawMessage `json:"loanAmount"`
	CreditScore     json.RawMessage `json:"creditScore"`
	Status          json.RawMessage `json:"status"`
	CreatedAt       json.RawMessage `json:"createdAt"`
	ApplicationDate json.RawMessage `json:"applicationDate"`
}

// WireEMI is an installment exactly as the loan service sends it.
type WireEMI struct {
	ID            json.RawMessage `json:"id"`
	ApplicationID json.RawMessage `json:"applicationId"`
	EMINumber     json.RawMessage `json:"emiNumber"`
	DueDate       json.RawMessage `json:"dueDate"`
	Amount        json.RawMessage `json:"amount"`
	Status        json.RawMessage `json:"status"`
}

// NormalizeApplication converts a wire record into the canonical shape.
// Malformed money values become zero; each such coercion is reported in
// issues so the caller can log it.
func NormalizeApplication(w WireApplication) (LoanApplication, []string) {
	var issues []string

	app := LoanApplication{
		ApplicationID: rawString(w.ApplicationID),
		UserID:        rawString(w.UserID),
		Name:          rawString(w.Name),
		Profession:    rawString(w.Profession),
		Purpose:       rawString(w.Purpose),
		Status:        Status(strings.TrimSpace(rawString(w.Status))),
	}

	amount, err := rawDecimal(w.LoanAmount)
	if err != nil {
		issues = append(issues, fmt.Sprintf("loanAmount: %v, treated as zero", err))
	}
	app.LoanAmount = amount

	if score, err := rawInt(w.CreditScore); err == nil {
		app.CreditScore = score
	}

	// createdAt wins whenever it carries anything at all.
	ts := w.ApplicationDate
	if present(w.CreatedAt) {
		ts = w.CreatedAt
	}
	if present(ts) {
		app.RawTimestamp = rawString(ts)
		parsed, err := rawTime(ts)
		if err != nil {
			issues = append(issues, fmt.Sprintf("timestamp: %v, excluded from monthly trend", err))
		} else {
			app.SubmittedAt = parsed
		}
	}

	return app, issues
}

// NormalizeEMI converts a wire installment into the canonical shape.
func NormalizeEMI(w WireEMI) (EMIRecord, []string) {
	var issues []string

	emi := EMIRecord{
		ID:            rawString(w.ID),
		ApplicationID: rawString(w.ApplicationID),
		Status:        EMIStatus(strings.TrimSpace(rawString(w.Status))),
	}

	if n, err := rawInt(w.EMINumber); err == nil {
		emi.EMINumber = n
	} else {
		issues = append(issues, fmt.Sprintf("emiNumber: %v", err))
	}

	amount, err := rawDecimal(w.Amount)
	if err != nil {
		issues = append(issues, fmt.Sprintf("amount: %v, treated as zero", err))
	}
	emi.Amount = amount

	if due, err := rawTime(w.DueDate); err == nil {
		emi.DueDate = due
	} else {
		issues = append(issues, fmt.Sprintf("dueDate: %v", err))
	}

	return emi, issues
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return !bytes.Equal(trimmed, []byte(`""`))
}

// rawString renders strings and scalars as text. Arrays are kept verbatim;
// objects and null are "".
func rawString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	case '{', 'n':
		return ""
	default:
		return string(trimmed)
	}
}

func rawDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	if !present(raw) {
		return decimal.Zero, fmt.Errorf("missing")
	}
	text := strings.TrimSpace(rawString(raw))
	text = strings.ReplaceAll(text, ",", "")
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not numeric: %s", string(bytes.TrimSpace(raw)))
	}
	return d, nil
}

func rawInt(raw json.RawMessage) (int, error) {
	d, err := rawDecimal(raw)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// rawTime accepts ISO strings (offsets with or without a colon), epoch milliseconds and the [y,m,d,h,min,s,ns]
// arrays Jackson emits for LocalDate/LocalDateTime.
func rawTime(raw json.RawMessage) (time.Time, error) {
	trimmed := bytes.TrimSpace(raw)
	if !present(trimmed) {
		return time.Time{}, fmt.Errorf("missing")
	}

	switch trimmed[0] {
	case '"':
		s := strings.TrimSpace(rawString(trimmed))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	case '[':
		var parts []int
		if err := json.Unmarshal(trimmed, &parts); err != nil || len(parts) < 3 {
			return time.Time{}, fmt.Errorf("unparseable date array %s", string(trimmed))
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		if parts[1] < 1 || parts[1] > 12 || parts[2] < 1 || parts[2] > 31 {
			return time.Time{}, fmt.Errorf("date array out of range %s", string(trimmed))
		}
		return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.UTC), nil
	default:
		millis, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable date %s", string(trimmed))
		}
		return time.UnixMilli(millis).UTC(), nil
	}
}
