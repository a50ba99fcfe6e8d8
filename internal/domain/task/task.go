package task

import (
	"time"

	"taskpay/internal/common"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusFilled     Status = "filled"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
)

type Task struct {
	ID             common.UUID  `json:"id"`
	ClientID       *common.UUID `json:"client_id,omitempty"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	CategoryID     *common.UUID `json:"category_id,omitempty"`
	LocationID     *common.UUID `json:"location_id,omitempty"`
	Budget         int64        `json:"budget"`
	Deadline       *time.Time   `json:"deadline,omitempty"`
	Status         Status       `json:"status"`
	ApplicantCount int          `json:"applicant_count"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Update carries a partial edit. Nil fields keep their stored value.
type Update struct {
	Title       *string
	Description *string
	CategoryID  *common.UUID
	LocationID  *common.UUID
	Budget      *int64
	Deadline    *time.Time
	Status      *Status
}

// CanTransition encodes the task lifecycle: open tasks can start, fill or
// close; filled tasks can complete or reopen; closed tasks can reopen.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusOpen:
		return to == StatusInProgress || to == StatusFilled || to == StatusClosed
	case StatusInProgress:
		return to == StatusCompleted || to == StatusFilled || to == StatusClosed
	case StatusFilled:
		return to == StatusCompleted || to == StatusOpen
	case StatusClosed:
		return to == StatusOpen
	default:
		return false
	}
}

func KnownStatus(status Status) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusFilled, StatusCompleted, StatusClosed:
		return true
	default:
		return false
	}
}

type ClientStats struct {
	TotalTasks        int `json:"total_tasks"`
	OpenTasks         int `json:"open_tasks"`
	FilledTasks       int `json:"filled_tasks"`
	CompletedTasks    int `json:"completed_tasks"`
	TotalApplications int `json:"total_applications"`
}
