package application

import (
	"time"

	"taskpay/internal/common"
)

type Status string

const (
	StatusPending            Status = "pending"
	StatusViewedByAdmin      Status = "viewed_by_admin"
	StatusShortlisted        Status = "shortlisted"
	StatusApproved           Status = "approved"
	StatusWithdrawn          Status = "withdrawn"
	StatusRejected           Status = "rejected"
	StatusInProgress         Status = "in_progress"
	StatusSubmittedForReview Status = "submitted_for_review"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
)

type Application struct {
	ID             common.UUID `json:"id"`
	TaskID         common.UUID `json:"task_id"`
	ApplicantID    common.UUID `json:"applicant_id"`
	CoverLetter    string      `json:"cover_letter,omitempty"`
	ProposedBudget int64       `json:"proposed_budget"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func IsFinal(status Status) bool {
	switch status {
	case StatusCompleted, StatusRejected, StatusWithdrawn, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition encodes the application lifecycle. Cancellation is allowed
// from any non-final state.
func CanTransition(from, to Status) bool {
	if IsFinal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusViewedByAdmin || to == StatusShortlisted || to == StatusRejected || to == StatusWithdrawn
	case StatusViewedByAdmin:
		return to == StatusShortlisted || to == StatusRejected || to == StatusWithdrawn
	case StatusShortlisted:
		return to == StatusApproved || to == StatusInProgress || to == StatusRejected || to == StatusWithdrawn
	case StatusApproved:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusSubmittedForReview
	case StatusSubmittedForReview:
		return to == StatusCompleted || to == StatusInProgress
	default:
		return false
	}
}

func KnownStatus(status Status) bool {
	switch status {
	case StatusPending, StatusViewedByAdmin, StatusShortlisted, StatusApproved,
		StatusWithdrawn, StatusRejected, StatusInProgress, StatusSubmittedForReview,
		StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
