// Package storage defines the persistence boundary for campaign locations.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested location record is missing.
	ErrNotFound = errors.New("record not found")
)

// PopulationGroup stores one named population segment of a location. The
// count expression is persisted verbatim.
type PopulationGroup struct {
	Name  string `json:"name"`
	Count string `json:"count"`
}

// LocationRecord stores one location row. ParentID is empty for roots and
// is not constrained to reference an existing row.
type LocationRecord struct {
	ID          string
	CampaignID  string
	ParentID    string
	Name        string
	Description string
	Population  []PopulationGroup
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LocationStore persists location records and answers the two relationship
// queries the tree algorithms need.
type LocationStore interface {
	GetLocation(ctx context.Context, campaignID string, locationID string) (LocationRecord, error)
	PutLocation(ctx context.Context, record LocationRecord) error
	UpdateLocation(ctx context.Context, record LocationRecord) error
	DeleteLocation(ctx context.Context, campaignID string, locationID string) error
	ListChildren(ctx context.Context, campaignID string, parentID string) ([]LocationRecord, error)
	ListRoots(ctx context.Context, campaignID string) ([]LocationRecord, error)
	DeleteCampaign(ctx context.Context, campaignID string) error
}
