package inquiries

import (
	"time"

	"razorkart/internal/visibility"
)

const Entity = "inquiry"

// Inquiry statuses. Any writer with mutate access may set any status; there
// is deliberately no transition graph.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusRejected   = "Rejected"
)

// Inquiry is a customer support ticket. SubmitterID is empty for anonymous
// submissions, which are matched back to their author by email.
type Inquiry struct {
	ID          string    `json:"id"`
	SubmitterID string    `json:"submitter_id,omitempty"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	Replies     []Reply   `json:"replies"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Reply struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (i Inquiry) VisibilityAttrs() visibility.Attrs {
	return visibility.Attrs{
		SubmitterID: i.SubmitterID,
		Email:       i.Email,
	}
}

// NewInquiry is the submission payload. Email is required so anonymous
// submitters can see their own tickets later.
type NewInquiry struct {
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}
