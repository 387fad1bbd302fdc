package model

import "time"

type ActionType string

const (
	ActionCreateProject     ActionType = "create_project"
	ActionUpdateProject     ActionType = "update_project"
	ActionCreateMilestone   ActionType = "create_milestone"
	ActionCompleteMilestone ActionType = "complete_milestone"
	ActionCreateTask        ActionType = "create_task"
	ActionUpdateTask        ActionType = "update_task"
	ActionCompleteTask      ActionType = "complete_task"
	ActionAddDocument       ActionType = "add_document"
	ActionAddMember         ActionType = "add_member"
	ActionRemoveMember      ActionType = "remove_member"
	ActionComment           ActionType = "comment"
)

type EntityType string

const (
	EntityProject   EntityType = "project"
	EntityMilestone EntityType = "milestone"
	EntityTask      EntityType = "task"
	EntityDocument  EntityType = "document"
	EntityMember    EntityType = "member"
)

func ValidEntityType(e EntityType) bool {
	switch e {
	case EntityProject, EntityMilestone, EntityTask, EntityDocument, EntityMember:
		return true
	}
	return false
}

// Activity is one append-only audit record. It is never updated or deleted.
type Activity struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"user_id"`
	ProjectID  int64          `json:"project_id"`
	ActionType ActionType     `json:"action_type"`
	EntityID   int64          `json:"entity_id"`
	EntityType EntityType     `json:"entity_type"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Newer reports whether a sorts before b in feed order: created_at desc, id desc.
func (a Activity) Newer(b Activity) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
