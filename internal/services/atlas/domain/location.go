package domain

import (
	"time"

	apperrors "github.com/westmarch/atlas/internal/platform/errors"
)

var (
	// ErrCampaignIDRequired indicates a campaign identifier is required.
	ErrCampaignIDRequired = apperrors.New(apperrors.CodeLocationEmptyCampaignID, "campaign id is required")
	// ErrLocationIDRequired indicates a location identifier is required.
	ErrLocationIDRequired = apperrors.New(apperrors.CodeLocationEmptyID, "location id is required")
	// ErrNameRequired indicates a location name is required.
	ErrNameRequired = apperrors.New(apperrors.CodeLocationEmptyName, "location name is required")
	// ErrNoMoveTargets indicates a bulk move carried no location ids.
	ErrNoMoveTargets = apperrors.New(apperrors.CodeLocationNoMoveTargets, "at least one location id is required")
	// ErrChildHandlingUnset indicates a removal without a child handling policy.
	ErrChildHandlingUnset = apperrors.New(apperrors.CodeLocationChildHandlingUnset, "child handling policy is required")
	// ErrNotFound indicates the referenced location does not exist in the campaign.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "location not found")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = apperrors.New(apperrors.CodeUnknown, "location store is not configured")
)

// PopulationGroup describes one named population segment of a location.
// Count is an opaque expression, either an integer literal ("2500") or a
// percentage ("40%"); it is stored verbatim and never evaluated here.
type PopulationGroup struct {
	Name  string `json:"name"`
	Count string `json:"count"`
}

// LocationRecord is the persisted shape of one location.
//
// ParentID is an opaque key, empty for root locations. It is not a
// validated ownership pointer: a parent may have been removed out from
// under a child, and readers must tolerate that.
type LocationRecord struct {
	ID          string            `json:"id"`
	CampaignID  string            `json:"campaign_id"`
	ParentID    string            `json:"parent_id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Population  []PopulationGroup `json:"population,omitempty"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ListItem reduces the record to its list projection.
func (r LocationRecord) ListItem() LocationListItem {
	return LocationListItem{
		ID:   r.ID,
		Name: r.Name,
		Tags: r.Tags,
	}
}

// LocationListItem is the reduced projection used in lists, child
// collections, and ancestor paths.
type LocationListItem struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Location is the externally visible view of one location: the record plus
// its immediate children and full ancestor path, rebuilt on every read.
type Location struct {
	LocationRecord
	// ChildLocations holds the immediate children.
	ChildLocations []LocationListItem `json:"child_locations"`
	// ParentsPath holds the ancestors ordered nearest-first, ending at a root.
	ParentsPath []LocationListItem `json:"parents_path"`
}

// ChildHandling selects what happens to a removed location's direct children.
type ChildHandling int

const (
	// ChildHandlingUnspecified is the zero value and is rejected by RemoveLocation.
	ChildHandlingUnspecified ChildHandling = iota
	// ChildHandlingMoveToRoot clears each child's parent, making it a root.
	ChildHandlingMoveToRoot
	// ChildHandlingMoveToParent promotes each child to the removed node's parent.
	ChildHandlingMoveToParent
	// ChildHandlingDelete removes the entire subtree under each child.
	ChildHandlingDelete
)

// String names the policy for logs and transport payloads.
func (h ChildHandling) String() string {
	switch h {
	case ChildHandlingMoveToRoot:
		return "move_to_root"
	case ChildHandlingMoveToParent:
		return "move_to_parent"
	case ChildHandlingDelete:
		return "delete"
	default:
		return "unspecified"
	}
}

// ParseChildHandling maps a transport policy name to the domain value.
// Unrecognized names map to ChildHandlingUnspecified.
func ParseChildHandling(value string) ChildHandling {
	switch value {
	case "move_to_root":
		return ChildHandlingMoveToRoot
	case "move_to_parent":
		return ChildHandlingMoveToParent
	case "delete":
		return ChildHandlingDelete
	default:
		return ChildHandlingUnspecified
	}
}
