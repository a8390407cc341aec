package server

import (
	"context"
	"strings"

	apperrors "github.com/westmarch/atlas/internal/platform/errors"
	"github.com/westmarch/atlas/internal/services/atlas/domain"
)

// ErrEditingUserRequired indicates a mutation without an editing user id.
var ErrEditingUserRequired = apperrors.New(apperrors.CodeLocationEmptyUserID, "editing user id is required")

// Broadcaster fans one campaign-scoped event out to subscribed clients.
// Delivery is fire-and-forget: implementations log failures and never
// report them back.
type Broadcaster interface {
	Broadcast(campaignID string, event domain.Event)
}

// LocationService fronts the location tree engine: it validates call-level
// arguments, delegates to the engine, and broadcasts one event per
// successful mutation. The editing user id only attributes the change on
// the event; it carries no authorization weight.
type LocationService struct {
	engine      *domain.Service
	broadcaster Broadcaster
}

// NewLocationService wires the facade over the tree engine.
func NewLocationService(engine *domain.Service, broadcaster Broadcaster) *LocationService {
	return &LocationService{
		engine:      engine,
		broadcaster: broadcaster,
	}
}

// GetRootLocations lists the campaign's root locations.
func (s *LocationService) GetRootLocations(ctx context.Context, campaignID string) ([]domain.LocationListItem, error) {
	return s.engine.GetRootLocations(ctx, campaignID)
}

// GetLocation returns the full view of one location.
func (s *LocationService) GetLocation(ctx context.Context, campaignID string, locationID string) (domain.Location, error) {
	return s.engine.GetLocation(ctx, campaignID, locationID)
}

// AddLocation creates a location and announces it to campaign subscribers.
func (s *LocationService) AddLocation(ctx context.Context, editingUserID string, input domain.AddLocationInput) (domain.Location, error) {
	editingUserID = strings.TrimSpace(editingUserID)
	if editingUserID == "" {
		return domain.Location{}, ErrEditingUserRequired
	}

	record, err := s.engine.AddLocation(ctx, input)
	if err != nil {
		return domain.Location{}, err
	}
	view, err := s.engine.GetLocation(ctx, record.CampaignID, record.ID)
	if err != nil {
		return domain.Location{}, err
	}

	s.broadcast(record.CampaignID, domain.Event{
		Name:          domain.EventLocationAdded,
		CampaignID:    record.CampaignID,
		EditingUserID: editingUserID,
		Payload:       domain.LocationAddedPayload{Location: view},
	})
	return view, nil
}

// UpdateLocation applies a partial update and announces the rebuilt view.
func (s *LocationService) UpdateLocation(ctx context.Context, editingUserID string, input domain.UpdateLocationInput) (domain.Location, error) {
	editingUserID = strings.TrimSpace(editingUserID)
	if editingUserID == "" {
		return domain.Location{}, ErrEditingUserRequired
	}

	view, err := s.engine.UpdateLocation(ctx, input)
	if err != nil {
		return domain.Location{}, err
	}

	s.broadcast(view.CampaignID, domain.Event{
		Name:          domain.EventLocationUpdated,
		CampaignID:    view.CampaignID,
		EditingUserID: editingUserID,
		Payload:       domain.LocationUpdatedPayload{Location: view},
	})
	return view, nil
}

// RemoveLocation deletes a location under the given child handling policy
// and announces the removal. Subscribers requery affected parents rather
// than receiving every deleted descendant id.
func (s *LocationService) RemoveLocation(ctx context.Context, editingUserID string, campaignID string, locationID string, handling domain.ChildHandling) ([]domain.LocationRecord, error) {
	editingUserID = strings.TrimSpace(editingUserID)
	if editingUserID == "" {
		return nil, ErrEditingUserRequired
	}

	changed, err := s.engine.RemoveLocation(ctx, campaignID, locationID, handling)
	if err != nil {
		return nil, err
	}

	s.broadcast(campaignID, domain.Event{
		Name:          domain.EventLocationRemoved,
		CampaignID:    campaignID,
		EditingUserID: editingUserID,
		Payload: domain.LocationRemovedPayload{
			LocationID:    locationID,
			ChildHandling: handling.String(),
		},
	})
	return changed, nil
}

// MoveLocations reparents the listed locations and announces the moves.
func (s *LocationService) MoveLocations(ctx context.Context, editingUserID string, campaignID string, newParentID string, locationIDs []string) ([]domain.LocationRecord, error) {
	editingUserID = strings.TrimSpace(editingUserID)
	if editingUserID == "" {
		return nil, ErrEditingUserRequired
	}

	moved, err := s.engine.MoveLocations(ctx, campaignID, newParentID, locationIDs)
	if err != nil {
		return nil, err
	}

	moves := make(map[string]string, len(moved))
	for _, record := range moved {
		moves[record.ID] = record.ParentID
	}
	s.broadcast(campaignID, domain.Event{
		Name:          domain.EventLocationsMoved,
		CampaignID:    campaignID,
		EditingUserID: editingUserID,
		Payload:       domain.LocationsMovedPayload{Moves: moves},
	})
	return moved, nil
}

// DeleteCampaignLocations cascades a campaign deletion through the location
// store. No event is broadcast: the campaign's subscription scope is being
// torn down with it.
func (s *LocationService) DeleteCampaignLocations(ctx context.Context, campaignID string) error {
	return s.engine.DeleteCampaignLocations(ctx, campaignID)
}

func (s *LocationService) broadcast(campaignID string, event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(campaignID, event)
}
