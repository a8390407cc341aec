package domain

// Event names broadcast to campaign subscribers after successful mutations.
const (
	EventLocationAdded   = "location.added"
	EventLocationUpdated = "location.updated"
	EventLocationRemoved = "location.removed"
	EventLocationsMoved  = "locations.moved"
)

// Event is one campaign-scoped mutation broadcast. EditingUserID attributes
// the change for receiving clients; it carries no authorization weight.
type Event struct {
	Name          string `json:"name"`
	CampaignID    string `json:"campaign_id"`
	EditingUserID string `json:"editing_user_id"`
	Payload       any    `json:"payload"`
}

// LocationAddedPayload carries the full view of the new location.
type LocationAddedPayload struct {
	Location Location `json:"location"`
}

// LocationUpdatedPayload carries the full rebuilt view after an update.
type LocationUpdatedPayload struct {
	Location Location `json:"location"`
}

// LocationRemovedPayload identifies the removed location. Clients requery
// affected parents rather than receiving a full diff of deleted descendants.
type LocationRemovedPayload struct {
	LocationID    string `json:"location_id"`
	ChildHandling string `json:"child_handling"`
}

// LocationsMovedPayload maps each moved location to its new parent; an
// empty value means the location became a root.
type LocationsMovedPayload struct {
	Moves map[string]string `json:"moves"`
}
