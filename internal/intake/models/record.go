package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StatusPending is the only status a new submission can have.
const StatusPending = "pending"

// Record is a persisted submission.
type Record struct {
	ID             uuid.UUID
	ReferenceID    string
	Category       Category
	Fields         Fields
	AttachmentURLs []string
	Status         string
	CreatedAt      time.Time
}

// NewRecord assembles a pending record. An empty url list is stored as null.
func NewRecord(id uuid.UUID, referenceID string, category Category, fields Fields, urls []string, createdAt time.Time) *Record {
	if len(urls) == 0 {
		urls = nil
	}
	return &Record{
		ID:             id,
		ReferenceID:    referenceID,
		Category:       category,
		Fields:         fields,
		AttachmentURLs: urls,
		Status:         StatusPending,
		CreatedAt:      createdAt.UTC(),
	}
}

// Columns lists every table column of the record in insert order.
func (r *Record) Columns() []Column {
	cols := []Column{
		{"id", r.ID},
		{"reference_id", r.ReferenceID},
	}
	if r.Fields != nil {
		cols = append(cols, r.Fields.Columns()...)
	}
	var urls any
	if len(r.AttachmentURLs) > 0 {
		urls = r.AttachmentURLs
	}
	return append(cols,
		Column{"attachment_urls", urls},
		Column{"status", r.Status},
		Column{"created_at", r.CreatedAt},
	)
}

// MarshalJSON renders the record as a flat object keyed by column name.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 16)
	for _, c := range r.Columns() {
		out[c.Name] = c.Value
	}
	out["created_at"] = r.CreatedAt.Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// Result is the outcome of a successful intake.
type Result struct {
	Spec   CategorySpec
	Record *Record
	// Skipped names attachments dropped under the tolerant policy.
	Skipped []string
}

// TrackingInfo is the non-personal view of a submission returned to citizens
// who quote their reference ID.
type TrackingInfo struct {
	ReferenceID string
	Category    Category
	Status      string
	CreatedAt   time.Time
}
