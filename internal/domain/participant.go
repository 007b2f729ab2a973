package domain

// Role controls what a participant may do and see.
type Role string

const (
	RoleUser   Role = "USER"
	RoleTrader Role = "TRADER"
	RoleAdmin  Role = "ADMIN"
)

// Participant is a directory record: identity, display values, contact
// details, and the settlement desk the participant belongs to (traders
// and settlement contacts only).
type Participant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Role    Role   `json:"role"`
	Desk    string `json:"desk,omitempty"`
}

// Directory resolves participant identities. It is an external
// collaborator: the engine reads from it before validation and writes
// to it (SetPhone) only after an in-memory transition has committed.
type Directory interface {
	Resolve(id string) (*Participant, error)
	SetPhone(id, phone string) error
	// DeskContacts returns the trader contacts registered for a
	// settlement desk, used as notification recipients.
	DeskContacts(desk string) []*Participant
}
