package service

import "thinkhub/internal/model"

const fallbackActionText = "performed an action"

// ActionText maps an action type to the verb phrase shown in the feed.
func ActionText(a model.ActionType) string {
	switch a {
	case model.ActionCreateProject:
		return "created a project"
	case model.ActionUpdateProject:
		return "updated the project"
	case model.ActionCreateMilestone:
		return "created a milestone"
	case model.ActionCompleteMilestone:
		return "completed a milestone"
	case model.ActionCreateTask:
		return "created a task"
	case model.ActionUpdateTask:
		return "updated a task"
	case model.ActionCompleteTask:
		return "completed a task"
	case model.ActionAddDocument:
		return "added a document"
	case model.ActionAddMember:
		return "added a member"
	case model.ActionRemoveMember:
		return "removed a member"
	case model.ActionComment:
		return "commented"
	}
	return fallbackActionText
}
