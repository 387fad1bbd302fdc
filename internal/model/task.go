package model

import "time"

const (
	TaskToDo       = "To Do"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

const (
	MinPriority = 1
	MaxPriority = 5
)

type Task struct {
	ID                 int64      `json:"id"`
	ProjectID          int64      `json:"project_id"`
	MilestoneID        *int64     `json:"milestone_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	Priority           int        `json:"priority"`
	CreatedBy          string     `json:"created_by"`
	AssignedTo         *string    `json:"assigned_to"`
	DueDate            *time.Time `json:"due_date"`
	DocumentID         *int64     `json:"document_id"`
	PolicyHeader       *string    `json:"policy_header,omitempty"`
	PolicyContent      *string    `json:"policy_content,omitempty"`
	RecommendedContent *string    `json:"recommended_content,omitempty"`
	Order              int        `json:"order"`
	CreatedAt          time.Time  `json:"created_at"`
}

// InMilestone reports whether the task currently belongs to milestoneID.
func (t Task) InMilestone(milestoneID int64) bool {
	return t.MilestoneID != nil && *t.MilestoneID == milestoneID
}

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// TaskPatch carries the optional fields of a task update; nil means unchanged.
type TaskPatch struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	Status             *string    `json:"status"`
	Priority           *int       `json:"priority"`
	AssignedTo         *string    `json:"assigned_to"`
	DueDate            *time.Time `json:"due_date"`
	DocumentID         *int64     `json:"document_id"`
	PolicyHeader       *string    `json:"policy_header"`
	PolicyContent      *string    `json:"policy_content"`
	RecommendedContent *string    `json:"recommended_content"`
}

// Apply copies every set field of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		t.AssignedTo = p.AssignedTo
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.DocumentID != nil {
		t.DocumentID = p.DocumentID
	}
	if p.PolicyHeader != nil {
		t.PolicyHeader = p.PolicyHeader
	}
	if p.PolicyContent != nil {
		t.PolicyContent = p.PolicyContent
	}
	if p.RecommendedContent != nil {
		t.RecommendedContent = p.RecommendedContent
	}
}
