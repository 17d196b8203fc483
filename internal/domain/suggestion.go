package domain

import "time"

type SuggestionStatus string

const (
	SuggestionOpen      SuggestionStatus = "OPEN"
	SuggestionResolved  SuggestionStatus = "RESOLVED"
	SuggestionDismissed SuggestionStatus = "DISMISSED"
)

// Suggestion is a proposed diff against a resource, held inert until a
// moderator approves or dismisses it. RESOLVED and DISMISSED are terminal.
type Suggestion struct {
	ID         string           `json:"id"`
	ResourceID string           `json:"resource_id"`
	Reporter   string           `json:"reporter"`
	Fields     map[string]any   `json:"fields"`
	Status     SuggestionStatus `json:"status"`
	Moderator  string           `json:"moderator,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	CDate      time.Time        `json:"cdate"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// SuggestionFilter narrows a suggestion listing.
type SuggestionFilter struct {
	ResourceID *string
	Status     *SuggestionStatus
}
