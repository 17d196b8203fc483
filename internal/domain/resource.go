package domain

import "time"

type ResourceType string

const (
	ResourceWater    ResourceType = "WATER"
	ResourceFood     ResourceType = "FOOD"
	ResourceForage   ResourceType = "FORAGE"
	ResourceBathroom ResourceType = "BATHROOM"
)

type ResourceStatus string

const (
	StatusOperational       ResourceStatus = "OPERATIONAL"
	StatusTemporarilyClosed ResourceStatus = "TEMPORARILY_CLOSED"
	StatusPermanentlyClosed ResourceStatus = "PERMANENTLY_CLOSED"
	// StatusHidden is the soft-delete state. Hidden rows stay in the store
	// and keep their changelog.
	StatusHidden ResourceStatus = "HIDDEN"
)

type EntryType string

const (
	EntryOpen       EntryType = "OPEN"
	EntryRestricted EntryType = "RESTRICTED"
	EntryUnsure     EntryType = "UNSURE"
)

// DataSource describes where a resource entry came from.
type DataSource struct {
	Type string  `json:"type"`
	URL  *string `json:"url,omitempty"`
}

const (
	SourceManual    = "MANUAL"
	SourceWebScrape = "WEB_SCRAPE"
)

// Verification is updated only by the verification action, never through
// general field edits.
type Verification struct {
	Verified     bool      `json:"verified"`
	LastModified time.Time `json:"last_modified"`
	Verifier     string    `json:"verifier"`
}

// WaterInfo is the payload for WATER resources. All tag lists may be empty.
type WaterInfo struct {
	DispenserType []string `json:"dispenser_type"`
	Tags          []string `json:"tags"`
}

// FoodInfo is the payload for FOOD resources. FoodType, DistributionType and
// OrganizationType must each have at least one entry.
type FoodInfo struct {
	FoodType         []string `json:"food_type"`
	DistributionType []string `json:"distribution_type"`
	OrganizationType []string `json:"organization_type"`
	OrganizationName *string  `json:"organization_name,omitempty"`
	OrganizationURL  *string  `json:"organization_url,omitempty"`
}

// ForageInfo is the payload for FORAGE resources.
type ForageInfo struct {
	ForageType []string `json:"forage_type"`
	Tags       []string `json:"tags"`
}

// BathroomInfo is the payload for BATHROOM resources.
type BathroomInfo struct {
	Tags []string `json:"tags"`
}

// ResourceEntry is the root aggregate of the registry. Exactly one of the
// Water/Food/Forage/Bathroom payloads is set, selected by ResourceType.
// Provenance fields are stamped by the mutation path and are never writable
// by callers.
type ResourceEntry struct {
	ID           string       `json:"id"`
	Version      int          `json:"version,omitempty"`
	DateCreated  time.Time    `json:"date_created"`
	Creator      string       `json:"creator"`
	LastModified time.Time    `json:"last_modified"`
	LastModifier string       `json:"last_modifier"`
	Source       DataSource   `json:"source"`
	Verification Verification `json:"verification"`

	ResourceType ResourceType `json:"resource_type"`

	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Guidelines  *string `json:"guidelines,omitempty"`

	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	ZipCode *string `json:"zip_code,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	GpID *string `json:"gp_id,omitempty"`

	Images []string `json:"images"`

	EntryType *EntryType     `json:"entry_type,omitempty"`
	Status    ResourceStatus `json:"status"`

	Water    *WaterInfo    `json:"water,omitempty"`
	Food     *FoodInfo     `json:"food,omitempty"`
	Forage   *ForageInfo   `json:"forage,omitempty"`
	Bathroom *BathroomInfo `json:"bathroom,omitempty"`
}

// ResourceFilter narrows a listing. Nil members impose no constraint; set
// members are AND-combined.
type ResourceFilter struct {
	ResourceType *ResourceType
	Status       *ResourceStatus
}

// UpdateFunc merges a mutation into an entry. The store invokes it with the
// entry as it stands under the row lock, so the merge never operates on a
// stale read and a concurrent editor's fields survive.
type UpdateFunc func(current ResourceEntry) (ResourceEntry, []ChangeRecord, error)
