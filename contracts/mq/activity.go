package mq

import "time"

const RoutingKeyActivityRecorded = "activity.recorded"

// ActivityRecordedPayload is published through the outbox for every appended activity record.
type ActivityRecordedPayload struct {
	ActivityID int64     `json:"activity_id"`
	UserID     string    `json:"user_id"`
	ProjectID  int64     `json:"project_id"`
	ActionType string    `json:"action_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	// MemberID is set for add_member and remove_member.
	MemberID   string    `json:"member_id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
