// Package events publishes submission lifecycle events for downstream
// consumers (case management, notification senders). Publishing is best
// effort: intake never fails because an event could not be delivered.
package events

import (
	"context"
	"time"
)

// TypeSubmissionCreated is the event type header value.
const TypeSubmissionCreated = "submission.created"

// SubmissionCreated announces a persisted submission. It carries no
// personal fields.
type SubmissionCreated struct {
	ReferenceID     string    `json:"referenceId"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	AttachmentCount int       `json:"attachmentCount"`
	CreatedAt       time.Time `json:"createdAt"`
	RequestID       string    `json:"requestId,omitempty"`
}

// Publisher emits submission events.
type Publisher interface {
	PublishSubmission(ctx context.Context, event SubmissionCreated) error
	Close()
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishSubmission(context.Context, SubmissionCreated) error { return nil }
func (Noop) Close()                                                     {}
