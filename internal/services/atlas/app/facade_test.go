package server

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/westmarch/atlas/internal/services/atlas/domain"
	"github.com/westmarch/atlas/internal/services/atlas/storage"
)

// memStore is an in-memory storage.LocationStore for facade tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]storage.LocationRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]storage.LocationRecord)}
}

func memKey(campaignID, locationID string) string {
	return campaignID + "/" + locationID
}

func (m *memStore) GetLocation(_ context.Context, campaignID string, locationID string) (storage.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[memKey(campaignID, locationID)]
	if !ok {
		return storage.LocationRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStore) PutLocation(_ context.Context, record storage.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memKey(record.CampaignID, record.ID)] = record
	return nil
}

func (m *memStore) UpdateLocation(_ context.Context, record storage.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(record.CampaignID, record.ID)
	if _, ok := m.records[key]; !ok {
		return storage.ErrNotFound
	}
	m.records[key] = record
	return nil
}

func (m *memStore) DeleteLocation(_ context.Context, campaignID string, locationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(campaignID, locationID)
	if _, ok := m.records[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.records, key)
	return nil
}

func (m *memStore) ListChildren(_ context.Context, campaignID string, parentID string) ([]storage.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var children []storage.LocationRecord
	for _, record := range m.records {
		if record.CampaignID == campaignID && record.ParentID == parentID {
			children = append(children, record)
		}
	}
	return children, nil
}

func (m *memStore) ListRoots(ctx context.Context, campaignID string) ([]storage.LocationRecord, error) {
	return m.ListChildren(ctx, campaignID, "")
}

func (m *memStore) DeleteCampaign(_ context.Context, campaignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, record := range m.records {
		if record.CampaignID == campaignID {
			delete(m.records, key)
		}
	}
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBroadcaster) Broadcast(campaignID string, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	event.CampaignID = campaignID
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) snapshot() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := make([]domain.Event, len(b.events))
	copy(events, b.events)
	return events
}

func newTestFacade(t *testing.T) (*LocationService, *recordingBroadcaster) {
	t.Helper()
	engine := domain.NewService(newDomainStoreAdapter(newMemStore()))
	broadcaster := &recordingBroadcaster{}
	return NewLocationService(engine, broadcaster), broadcaster
}

func addTestLocation(t *testing.T, svc *LocationService, campaignID, name, parentID string) domain.Location {
	t.Helper()
	view, err := svc.AddLocation(context.Background(), "user-1", domain.AddLocationInput{
		CampaignID: campaignID,
		Name:       name,
		ParentID:   parentID,
	})
	if err != nil {
		t.Fatalf("add location %q: %v", name, err)
	}
	return view
}

func TestAddLocationBroadcastsOnce(t *testing.T) {
	t.Parallel()

	svc, broadcaster := newTestFacade(t)
	view := addTestLocation(t, svc, "camp-1", "Moonspire", "")

	events := broadcaster.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	event := events[0]
	if event.Name != domain.EventLocationAdded {
		t.Fatalf("expected %s event, got %s", domain.EventLocationAdded, event.Name)
	}
	if event.CampaignID != "camp-1" || event.EditingUserID != "user-1" {
		t.Fatalf("unexpected event scope: %+v", event)
	}
	payload, ok := event.Payload.(domain.LocationAddedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Payload)
	}
	if payload.Location.ID != view.ID {
		t.Fatalf("expected payload to carry location %s, got %s", view.ID, payload.Location.ID)
	}
}

func TestUpdateLocationBroadcastsRebuiltView(t *testing.T) {
	t.Parallel()

	svc, broadcaster := newTestFacade(t)
	view := addTestLocation(t, svc, "camp-1", "Old Keep", "")

	newName := "New Keep"
	if _, err := svc.UpdateLocation(context.Background(), "user-2", domain.UpdateLocationInput{
		CampaignID: "camp-1",
		LocationID: view.ID,
		Name:       &newName,
	}); err != nil {
		t.Fatalf("update location: %v", err)
	}

	events := broadcaster.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected add+update events, got %d", len(events))
	}
	update := events[1]
	if update.Name != domain.EventLocationUpdated || update.EditingUserID != "user-2" {
		t.Fatalf("unexpected update event: %+v", update)
	}
	payload := update.Payload.(domain.LocationUpdatedPayload)
	if payload.Location.Name != "New Keep" {
		t.Fatalf("expected rebuilt view in payload, got %q", payload.Location.Name)
	}
}

func TestRemoveLocationBroadcastsRemoval(t *testing.T) {
	t.Parallel()

	svc, broadcaster := newTestFacade(t)
	view := addTestLocation(t, svc, "camp-1", "Doomed", "")

	if _, err := svc.RemoveLocation(context.Background(), "user-1", "camp-1", view.ID, domain.ChildHandlingMoveToRoot); err != nil {
		t.Fatalf("remove location: %v", err)
	}

	events := broadcaster.snapshot()
	removed := events[len(events)-1]
	if removed.Name != domain.EventLocationRemoved {
		t.Fatalf("expected %s event, got %s", domain.EventLocationRemoved, removed.Name)
	}
	payload := removed.Payload.(domain.LocationRemovedPayload)
	if payload.LocationID != view.ID || payload.ChildHandling != "move_to_root" {
		t.Fatalf("unexpected removal payload: %+v", payload)
	}
}

func TestMoveLocationsBroadcastsMoves(t *testing.T) {
	t.Parallel()

	svc, broadcaster := newTestFacade(t)
	target := addTestLocation(t, svc, "camp-1", "Target", "")
	childOne := addTestLocation(t, svc, "camp-1", "One", "")
	childTwo := addTestLocation(t, svc, "camp-1", "Two", "")

	if _, err := svc.MoveLocations(context.Background(), "user-3", "camp-1", target.ID, []string{childOne.ID, childTwo.ID}); err != nil {
		t.Fatalf("move locations: %v", err)
	}

	events := broadcaster.snapshot()
	moved := events[len(events)-1]
	if moved.Name != domain.EventLocationsMoved || moved.EditingUserID != "user-3" {
		t.Fatalf("unexpected move event: %+v", moved)
	}
	payload := moved.Payload.(domain.LocationsMovedPayload)
	if len(payload.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %v", payload.Moves)
	}
	for _, id := range []string{childOne.ID, childTwo.ID} {
		if payload.Moves[id] != target.ID {
			t.Fatalf("expected %s moved under %s, got %q", id, target.ID, payload.Moves[id])
		}
	}
}

func TestFailedMutationBroadcastsNothing(t *testing.T) {
	t.Parallel()

	svc, broadcaster := newTestFacade(t)

	if _, err := svc.RemoveLocation(context.Background(), "user-1", "camp-1", "missing", domain.ChildHandlingDelete); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AddLocation(context.Background(), "user-1", domain.AddLocationInput{CampaignID: "camp-1"}); !errors.Is(err, domain.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if got := len(broadcaster.snapshot()); got != 0 {
		t.Fatalf("expected no events after failed mutations, got %d", got)
	}
}

func TestMutationsRequireEditingUser(t *testing.T) {
	t.Parallel()

	svc, broadcaster := newTestFacade(t)

	if _, err := svc.AddLocation(context.Background(), "  ", domain.AddLocationInput{CampaignID: "camp-1", Name: "X"}); !errors.Is(err, ErrEditingUserRequired) {
		t.Fatalf("expected ErrEditingUserRequired from add, got %v", err)
	}
	if _, err := svc.MoveLocations(context.Background(), "", "camp-1", "", []string{"loc-1"}); !errors.Is(err, ErrEditingUserRequired) {
		t.Fatalf("expected ErrEditingUserRequired from move, got %v", err)
	}
	if got := len(broadcaster.snapshot()); got != 0 {
		t.Fatalf("expected no events, got %d", got)
	}
}

func TestBroadcasterIsOptional(t *testing.T) {
	t.Parallel()

	engine := domain.NewService(newDomainStoreAdapter(newMemStore()))
	svc := NewLocationService(engine, nil)

	if _, err := svc.AddLocation(context.Background(), "user-1", domain.AddLocationInput{CampaignID: "camp-1", Name: "Quiet"}); err != nil {
		t.Fatalf("expected mutation to succeed without a broadcaster: %v", err)
	}
}
