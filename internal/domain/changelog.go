package domain

import "time"

// ChangeRecord is one immutable field-level audit log entry. Records are only
// ever appended; a rollback writes a new record with old and new swapped.
// OldValue and NewValue hold the JSON serialization of the field value.
type ChangeRecord struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Seq        int64     `json:"seq"`
	Actor      string    `json:"actor"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Reason     string    `json:"reason,omitempty"`
	CDate      time.Time `json:"cdate"`
}
