// Package events translates domain happenings into webhook dispatches. The
// dispatcher treats every event type as an opaque string; the vocabulary
// lives here.
package events

import (
	"context"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/integration"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

// Event types emitted by the course-management platform.
const (
	UserRegistered     = "user.registered"
	ModuleCreated      = "module.created"
	TimetableCreated   = "timetable.created"
	NoteUploaded       = "note.uploaded"
	LecturerAssigned   = "lecturer.assigned"
	SystemError        = "system.error"
	SettingsUpdated    = "settings.updated"
	TestReminder       = "test.reminder"
	AssignmentReminder = "assignment.reminder"
	GradePublished     = "grade.published"
)

// Publisher forwards domain events to the webhook dispatcher.
type Publisher struct {
	manager *integration.Manager
}

// NewPublisher creates a new event publisher
func NewPublisher(manager *integration.Manager) *Publisher {
	return &Publisher{manager: manager}
}

// Publish dispatches an event to all subscribed webhooks.
func (p *Publisher) Publish(ctx context.Context, eventType string, data models.JSON) integration.DispatchResult {
	return p.manager.TriggerWebhooks(ctx, eventType, data)
}
