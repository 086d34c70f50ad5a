package models

import "encoding/json"

// RoleAdmin is the only role with special meaning to the dashboard; every
// other role is treated as a borrower.
const RoleAdmin = "ADMIN"

// Principal is the externally supplied identity of the dashboard user.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// UnmarshalJSON accepts the id as a string or a number; the backend's user
// ids are numeric.
func (p *Principal) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID   json.RawMessage `json:"id"`
		Role json.RawMessage `json:"role"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.ID = rawString(wire.ID)
	p.Role = rawString(wire.Role)
	return nil
}

// Valid is false when id or role is missing ("not logged in").
func (p *Principal) Valid() bool {
	return p != nil && p.ID != "" && p.Role != ""
}

func (p *Principal) IsAdmin() bool {
	return p.Valid() && p.Role == RoleAdmin
}
