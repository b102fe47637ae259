package domain

// Status is the lifecycle state of a view.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// Settled reports whether the status is terminal.
func (s Status) Settled() bool {
	switch s {
	case StatusSuccess, StatusEmpty, StatusFailed:
		return true
	default:
		return false
	}
}

// User-visible messages.
const (
	MsgFetchFailed   = "Error fetching recommendations"
	MsgNothingFound  = "No recommendations found."
	MsgCatalogFailed = "Error fetching products"
	MsgItemFailed    = "Error fetching product"
	MsgInvalidLogin  = "Email or password is incorrect."
	MsgAuthFailed    = "Server error"
	MsgRegisterFail  = "Registration failed. The email may already exist."
)
