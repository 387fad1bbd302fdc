package model

import "time"

const (
	MilestonePlanned    = "Planned"
	MilestoneInProgress = "In Progress"
	MilestoneCompleted  = "Completed"
)

type Milestone struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsActive reports whether the milestone still counts as open work.
func (m Milestone) IsActive() bool {
	return m.Status == MilestonePlanned || m.Status == MilestoneInProgress
}

// ValidMilestoneStatus reports whether s is a known milestone status.
func ValidMilestoneStatus(s string) bool {
	switch s {
	case MilestonePlanned, MilestoneInProgress, MilestoneCompleted:
		return true
	}
	return false
}

// MilestoneDeadline is an upcoming milestone joined with its project name.
type MilestoneDeadline struct {
	Milestone
	ProjectName string `json:"project_name"`
}
