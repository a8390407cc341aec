package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/westmarch/atlas/internal/platform/id"
)

// Store is the domain persistence boundary for location records.
//
// Implementations return ErrNotFound for point lookups and deletes of
// missing records. Relationship queries return empty slices, not errors,
// when nothing matches.
type Store interface {
	GetLocation(ctx context.Context, campaignID string, locationID string) (LocationRecord, error)
	PutLocation(ctx context.Context, record LocationRecord) error
	UpdateLocation(ctx context.Context, record LocationRecord) error
	DeleteLocation(ctx context.Context, campaignID string, locationID string) error
	ListChildren(ctx context.Context, campaignID string, parentID string) ([]LocationRecord, error)
	ListRoots(ctx context.Context, campaignID string) ([]LocationRecord, error)
	DeleteCampaign(ctx context.Context, campaignID string) error
}

// Service implements the location tree mutation and read algorithms.
//
// Multi-record mutations are sequenced children-before-parent so an
// interruption never leaves children pointing at a record that was deleted
// before they were handled; no cross-record atomicity is assumed from the
// store beyond that ordering.
type Service struct {
	store Store
	clock func() time.Time
	newID func() (string, error)

	// onDanglingParent observes ancestor walks truncated by a missing
	// parent record. Production data contains such references; the walk
	// treats them as normal termination, not an error.
	onDanglingParent func(campaignID, locationID, parentID string)
}

// NewService constructs the location tree service with default dependencies.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		newID: id.NewID,
		onDanglingParent: func(campaignID, locationID, parentID string) {
			log.Printf("atlas: dangling parent reference campaign=%s location=%s parent=%s", campaignID, locationID, parentID)
		},
	}
}

// AddLocationInput describes one location insert.
type AddLocationInput struct {
	CampaignID  string
	Name        string
	Description string
	ParentID    string
	Population  []PopulationGroup
	Tags        []string
}

// UpdateLocationInput describes one partial location update. Nil fields are
// left untouched; ParentID is never mutated here, reparenting is a separate
// operation.
type UpdateLocationInput struct {
	CampaignID  string
	LocationID  string
	Name        *string
	Description *string
	Population  *[]PopulationGroup
	Tags        *[]string
}

// GetRootLocations lists every location in the campaign without a parent.
func (s *Service) GetRootLocations(ctx context.Context, campaignID string) ([]LocationListItem, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, ErrCampaignIDRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots, err := s.store.ListRoots(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list root locations: %w", err)
	}
	items := make([]LocationListItem, 0, len(roots))
	for _, root := range roots {
		items = append(items, root.ListItem())
	}
	return items, nil
}

// AddLocation persists a new location record with a fresh identifier.
//
// A supplied parent id is stored as-is without an existence check, matching
// the tolerance for dangling parents on the read side.
func (s *Service) AddLocation(ctx context.Context, input AddLocationInput) (LocationRecord, error) {
	if s == nil || s.store == nil {
		return LocationRecord{}, ErrStoreNotConfigured
	}
	campaignID := strings.TrimSpace(input.CampaignID)
	if campaignID == "" {
		return LocationRecord{}, ErrCampaignIDRequired
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return LocationRecord{}, ErrNameRequired
	}
	if err := ctx.Err(); err != nil {
		return LocationRecord{}, err
	}

	locationID, err := s.newID()
	if err != nil {
		return LocationRecord{}, fmt.Errorf("generate location id: %w", err)
	}
	now := s.clock().UTC()
	record := LocationRecord{
		ID:          locationID,
		CampaignID:  campaignID,
		ParentID:    strings.TrimSpace(input.ParentID),
		Name:        name,
		Description: input.Description,
		Population:  input.Population,
		Tags:        input.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutLocation(ctx, record); err != nil {
		return LocationRecord{}, fmt.Errorf("persist location: %w", err)
	}
	return record, nil
}

// GetLocation builds the full view of one location: the record, its
// immediate children, and its ancestor path.
func (s *Service) GetLocation(ctx context.Context, campaignID string, locationID string) (Location, error) {
	if s == nil || s.store == nil {
		return Location{}, ErrStoreNotConfigured
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return Location{}, ErrCampaignIDRequired
	}
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return Location{}, ErrLocationIDRequired
	}
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}

	record, err := s.store.GetLocation(ctx, campaignID, locationID)
	if err != nil {
		return Location{}, err
	}
	return s.assemble(ctx, record)
}

// UpdateLocation applies the provided fields to an existing record and
// returns the rebuilt view.
func (s *Service) UpdateLocation(ctx context.Context, input UpdateLocationInput) (Location, error) {
	if s == nil || s.store == nil {
		return Location{}, ErrStoreNotConfigured
	}
	campaignID := strings.TrimSpace(input.CampaignID)
	if campaignID == "" {
		return Location{}, ErrCampaignIDRequired
	}
	locationID := strings.TrimSpace(input.LocationID)
	if locationID == "" {
		return Location{}, ErrLocationIDRequired
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return Location{}, ErrNameRequired
	}
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}

	record, err := s.store.GetLocation(ctx, campaignID, locationID)
	if err != nil {
		return Location{}, err
	}
	if input.Name != nil {
		record.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		record.Description = *input.Description
	}
	if input.Population != nil {
		record.Population = *input.Population
	}
	if input.Tags != nil {
		record.Tags = *input.Tags
	}
	record.UpdatedAt = s.clock().UTC()

	if err := s.store.UpdateLocation(ctx, record); err != nil {
		return Location{}, fmt.Errorf("update location: %w", err)
	}
	return s.assemble(ctx, record)
}

// RemoveLocation deletes one location after applying the child handling
// policy to its direct children. It returns the records that changed as a
// side effect; the delete policy reports no survivors.
//
// Children are handled before the target record is deleted, so a crash
// mid-operation leaves reparented children and a still-present target
// rather than orphans of a vanished parent.
func (s *Service) RemoveLocation(ctx context.Context, campaignID string, locationID string, handling ChildHandling) ([]LocationRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, ErrCampaignIDRequired
	}
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, ErrLocationIDRequired
	}
	switch handling {
	case ChildHandlingMoveToRoot, ChildHandlingMoveToParent, ChildHandlingDelete:
	default:
		return nil, ErrChildHandlingUnset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.store.GetLocation(ctx, campaignID, locationID)
	if err != nil {
		return nil, err
	}
	children, err := s.store.ListChildren(ctx, campaignID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	var changed []LocationRecord
	switch handling {
	case ChildHandlingMoveToRoot:
		changed, err = s.reparentChildren(ctx, children, "")
	case ChildHandlingMoveToParent:
		changed, err = s.reparentChildren(ctx, children, target.ParentID)
	case ChildHandlingDelete:
		changed = []LocationRecord{}
		for _, child := range children {
			if err = s.removeSubtree(ctx, campaignID, child.ID); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteLocation(ctx, campaignID, locationID); err != nil {
		return nil, err
	}
	return changed, nil
}

// MoveLocations reparents every listed location under newParentID; an empty
// newParentID moves them to the root. Re-moving an already-correctly
// parented location is a no-op update, so the operation is idempotent.
//
// No cycle check is performed: moving a location under its own descendant
// corrupts the forest shape. Read paths guard themselves against the
// resulting walks instead.
func (s *Service) MoveLocations(ctx context.Context, campaignID string, newParentID string, locationIDs []string) ([]LocationRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, ErrCampaignIDRequired
	}
	if len(locationIDs) == 0 {
		return nil, ErrNoMoveTargets
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	newParentID = strings.TrimSpace(newParentID)
	moved := make([]LocationRecord, 0, len(locationIDs))
	for _, locationID := range locationIDs {
		locationID = strings.TrimSpace(locationID)
		if locationID == "" {
			return nil, ErrLocationIDRequired
		}
		record, err := s.store.GetLocation(ctx, campaignID, locationID)
		if err != nil {
			return nil, err
		}
		if record.ParentID != newParentID {
			record.ParentID = newParentID
			record.UpdatedAt = s.clock().UTC()
			if err := s.store.UpdateLocation(ctx, record); err != nil {
				return nil, fmt.Errorf("move location %s: %w", locationID, err)
			}
		}
		moved = append(moved, record)
	}
	return moved, nil
}

// DeleteCampaignLocations removes every location scoped to the campaign.
func (s *Service) DeleteCampaignLocations(ctx context.Context, campaignID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return ErrCampaignIDRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.DeleteCampaign(ctx, campaignID); err != nil {
		return fmt.Errorf("delete campaign locations: %w", err)
	}
	return nil
}

func (s *Service) reparentChildren(ctx context.Context, children []LocationRecord, newParentID string) ([]LocationRecord, error) {
	changed := make([]LocationRecord, 0, len(children))
	for _, child := range children {
		child.ParentID = newParentID
		child.UpdatedAt = s.clock().UTC()
		if err := s.store.UpdateLocation(ctx, child); err != nil {
			return nil, fmt.Errorf("reparent location %s: %w", child.ID, err)
		}
		changed = append(changed, child)
	}
	return changed, nil
}

// removeSubtree deletes the location and all its descendants depth-first.
func (s *Service) removeSubtree(ctx context.Context, campaignID string, locationID string) error {
	children, err := s.store.ListChildren(ctx, campaignID, locationID)
	if err != nil {
		return fmt.Errorf("list children of %s: %w", locationID, err)
	}
	for _, child := range children {
		if err := s.removeSubtree(ctx, campaignID, child.ID); err != nil {
			return err
		}
	}
	if err := s.store.DeleteLocation(ctx, campaignID, locationID); err != nil {
		// A concurrent removal winning the race is not a failure of this one.
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
