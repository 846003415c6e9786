package model

// GIBStatus is the lifecycle state of an e-Fatura
type GIBStatus string

const (
	StatusDraft     GIBStatus = "DRAFT"
	StatusCreated   GIBStatus = "CREATED"
	StatusSent      GIBStatus = "SENT"
	StatusAccepted  GIBStatus = "ACCEPTED"
	StatusRejected  GIBStatus = "REJECTED"
	StatusCancelled GIBStatus = "CANCELLED"
	StatusArchived  GIBStatus = "ARCHIVED"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []GIBStatus{
	StatusDraft, StatusCreated, StatusSent, StatusAccepted, StatusRejected, StatusCancelled, StatusArchived,
}

var transitions = map[GIBStatus][]GIBStatus{
	StatusDraft:     {StatusCreated, StatusCancelled},
	StatusCreated:   {StatusSent, StatusCancelled},
	StatusSent:      {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusArchived},
	StatusRejected:  {StatusArchived},
	StatusCancelled: {StatusArchived},
}

// IsValid reports whether s is a known status
func (s GIBStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the portal has finished with the invoice
func (s GIBStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Leaving ARCHIVED is a restore and is not a regular transition.
func (s GIBStatus) CanTransitionTo(next GIBStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LogAction names the lifecycle action recorded in an InvoiceLog row
type LogAction string

const (
	ActionCreate       LogAction = "CREATE"
	ActionSend         LogAction = "SEND"
	ActionStatusUpdate LogAction = "STATUS_UPDATE"
	ActionCancel       LogAction = "CANCEL"
	ActionArchive      LogAction = "ARCHIVE"
	ActionRestore      LogAction = "RESTORE"
)

// LogOutcome is the result of a logged action
type LogOutcome string

const (
	OutcomeSuccess LogOutcome = "SUCCESS"
	OutcomeFailure LogOutcome = "FAILURE"
)
