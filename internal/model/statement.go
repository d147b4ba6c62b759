package model

type StatementStatus string

const (
	StatementUnsubmitted StatementStatus = "unsubmitted"
	StatementSubmitted   StatementStatus = "submitted"
	StatementConfirmed   StatementStatus = "confirmed"
)

type Statement struct {
	ID               int64           `json:"id"`
	ExcursionID      *int64          `json:"excursion_id,omitempty"`
	CreatedBy        *string         `json:"created_by,omitempty"`
	Status           StatementStatus `json:"status"`
	ShortDescription string          `json:"short_description"`
}
