package domain

import (
	"context"
	"errors"
	"fmt"
)

// assemble builds the Location view from the record and the two
// relationship queries.
func (s *Service) assemble(ctx context.Context, record LocationRecord) (Location, error) {
	children, err := s.store.ListChildren(ctx, record.CampaignID, record.ID)
	if err != nil {
		return Location{}, fmt.Errorf("list children: %w", err)
	}
	ancestors, err := s.ancestorChain(ctx, record)
	if err != nil {
		return Location{}, err
	}

	view := Location{
		LocationRecord: record,
		ChildLocations: make([]LocationListItem, 0, len(children)),
		ParentsPath:    make([]LocationListItem, 0, len(ancestors)),
	}
	for _, child := range children {
		view.ChildLocations = append(view.ChildLocations, child.ListItem())
	}
	for _, ancestor := range ancestors {
		view.ParentsPath = append(view.ParentsPath, ancestor.ListItem())
	}
	return view, nil
}

// ancestorChain walks parent references upward, nearest ancestor first,
// until it reaches a root.
//
// The walk tolerates two shapes of bad data: a parent reference to a record
// that no longer exists truncates the chain silently, and a reference loop
// stops at the first repeated id. Both are observed states, not errors.
func (s *Service) ancestorChain(ctx context.Context, record LocationRecord) ([]LocationRecord, error) {
	var chain []LocationRecord
	seen := map[string]struct{}{record.ID: {}}

	currentID := record.ID
	parentID := record.ParentID
	for parentID != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, looped := seen[parentID]; looped {
			break
		}
		parent, err := s.store.GetLocation(ctx, record.CampaignID, parentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				if s.onDanglingParent != nil {
					s.onDanglingParent(record.CampaignID, currentID, parentID)
				}
				break
			}
			return nil, fmt.Errorf("resolve ancestor %s: %w", parentID, err)
		}
		chain = append(chain, parent)
		seen[parent.ID] = struct{}{}
		currentID = parent.ID
		parentID = parent.ParentID
	}
	return chain, nil
}
