package services

import (
	"fmt"
	"time"

	"taskpilot/backend/internal/models"

	"github.com/gofrs/uuid"
)

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// DescribeChange summarizes the difference between two versions of a task.
// A status move wins over an assignment change, which wins over anything else.
func DescribeChange(original, updated models.Task, actor models.User) models.Activity {
	return newActivity(describeChange(original, updated), actor, time.Now().UTC())
}

func describeChange(original, updated models.Task) string {
	switch {
	case original.Status != updated.Status:
		return fmt.Sprintf("moved task \"%s\" from %s to %s", updated.Title, original.Status, updated.Status)
	case original.AssigneeID() != updated.AssigneeID() || (original.Assignee == nil) != (updated.Assignee == nil):
		if updated.Assignee != nil {
			return fmt.Sprintf("assigned task \"%s\" to %s", updated.Title, updated.Assignee.Name)
		}
		return fmt.Sprintf("unassigned task \"%s\"", updated.Title)
	default:
		return fmt.Sprintf("updated task \"%s\"", updated.Title)
	}
}

func describeCreation(task models.Task) string {
	text := fmt.Sprintf("created a new task: \"%s\"", task.Title)
	if task.Assignee != nil {
		text += " and assigned it to " + task.Assignee.Name
	}
	return text
}

func newActivity(text string, actor models.User, at time.Time) models.Activity {
	return models.Activity{
		ID:        newID(),
		Text:      text,
		Timestamp: at,
		User:      actor,
	}
}

// nextTimestamp keeps the activity log strictly ordered even if the clock
// has not advanced since the previous entry.
func nextTimestamp(now time.Time, activities []models.Activity) time.Time {
	for _, a := range activities {
		if !now.After(a.Timestamp) {
			now = a.Timestamp.Add(time.Millisecond)
		}
	}
	return now
}
