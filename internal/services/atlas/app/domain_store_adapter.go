package server

import (
	"context"
	"errors"

	apperrors "github.com/westmarch/atlas/internal/platform/errors"
	"github.com/westmarch/atlas/internal/services/atlas/domain"
	"github.com/westmarch/atlas/internal/services/atlas/storage"
)

// domainStoreAdapter exposes a storage.LocationStore through the domain
// persistence boundary, translating record shapes and the error taxonomy.
type domainStoreAdapter struct {
	locationStore storage.LocationStore
}

func newDomainStoreAdapter(locationStore storage.LocationStore) *domainStoreAdapter {
	return &domainStoreAdapter{locationStore: locationStore}
}

func (a *domainStoreAdapter) GetLocation(ctx context.Context, campaignID string, locationID string) (domain.LocationRecord, error) {
	if a == nil || a.locationStore == nil {
		return domain.LocationRecord{}, domain.ErrStoreNotConfigured
	}
	record, err := a.locationStore.GetLocation(ctx, campaignID, locationID)
	if err != nil {
		return domain.LocationRecord{}, mapStorageError(err)
	}
	return toDomainRecord(record), nil
}

func (a *domainStoreAdapter) PutLocation(ctx context.Context, record domain.LocationRecord) error {
	if a == nil || a.locationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.locationStore.PutLocation(ctx, toStorageRecord(record)))
}

func (a *domainStoreAdapter) UpdateLocation(ctx context.Context, record domain.LocationRecord) error {
	if a == nil || a.locationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.locationStore.UpdateLocation(ctx, toStorageRecord(record)))
}

func (a *domainStoreAdapter) DeleteLocation(ctx context.Context, campaignID string, locationID string) error {
	if a == nil || a.locationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.locationStore.DeleteLocation(ctx, campaignID, locationID))
}

func (a *domainStoreAdapter) ListChildren(ctx context.Context, campaignID string, parentID string) ([]domain.LocationRecord, error) {
	if a == nil || a.locationStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.locationStore.ListChildren(ctx, campaignID, parentID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainRecords(records), nil
}

func (a *domainStoreAdapter) ListRoots(ctx context.Context, campaignID string) ([]domain.LocationRecord, error) {
	if a == nil || a.locationStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.locationStore.ListRoots(ctx, campaignID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainRecords(records), nil
}

func (a *domainStoreAdapter) DeleteCampaign(ctx context.Context, campaignID string) error {
	if a == nil || a.locationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.locationStore.DeleteCampaign(ctx, campaignID))
}

// mapStorageError translates storage failures into the domain taxonomy.
// Missing records surface as not-found; anything else is an availability
// failure so callers can tell "doesn't exist" from "couldn't check".
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeStorageUnavailable, "location store unavailable", err)
}

func toDomainRecord(record storage.LocationRecord) domain.LocationRecord {
	population := make([]domain.PopulationGroup, 0, len(record.Population))
	for _, group := range record.Population {
		population = append(population, domain.PopulationGroup{Name: group.Name, Count: group.Count})
	}
	return domain.LocationRecord{
		ID:          record.ID,
		CampaignID:  record.CampaignID,
		ParentID:    record.ParentID,
		Name:        record.Name,
		Description: record.Description,
		Population:  population,
		Tags:        record.Tags,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func toDomainRecords(records []storage.LocationRecord) []domain.LocationRecord {
	out := make([]domain.LocationRecord, 0, len(records))
	for _, record := range records {
		out = append(out, toDomainRecord(record))
	}
	return out
}

func toStorageRecord(record domain.LocationRecord) storage.LocationRecord {
	population := make([]storage.PopulationGroup, 0, len(record.Population))
	for _, group := range record.Population {
		population = append(population, storage.PopulationGroup{Name: group.Name, Count: group.Count})
	}
	return storage.LocationRecord{
		ID:          record.ID,
		CampaignID:  record.CampaignID,
		ParentID:    record.ParentID,
		Name:        record.Name,
		Description: record.Description,
		Population:  population,
		Tags:        record.Tags,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
