// Package sqlite provides SQLite-backed persistence for campaign locations.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/westmarch/atlas/internal/platform/storage/sqlitemigrate"
	"github.com/westmarch/atlas/internal/services/atlas/storage"
	"github.com/westmarch/atlas/internal/services/atlas/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for location records.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a location SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

const locationColumns = "id, campaign_id, parent_id, name, description, population_json, tags_json, created_at, updated_at"

// GetLocation loads one location row by campaign and id.
func (s *Store) GetLocation(ctx context.Context, campaignID string, locationID string) (storage.LocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.LocationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.LocationRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+locationColumns+`
FROM locations
WHERE campaign_id = ? AND id = ?
`, campaignID, locationID)
	record, err := scanLocation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.LocationRecord{}, storage.ErrNotFound
		}
		return storage.LocationRecord{}, fmt.Errorf("get location: %w", err)
	}
	return record, nil
}

// PutLocation inserts one location row.
func (s *Store) PutLocation(ctx context.Context, record storage.LocationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	populationJSON, tagsJSON, err := encodeCollections(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO locations (id, campaign_id, parent_id, name, description, population_json, tags_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, record.ID, record.CampaignID, record.ParentID, record.Name, record.Description,
		populationJSON, tagsJSON, toMillis(record.CreatedAt), toMillis(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// UpdateLocation replaces the mutable columns of one location row.
func (s *Store) UpdateLocation(ctx context.Context, record storage.LocationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	populationJSON, tagsJSON, err := encodeCollections(record)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE locations
SET parent_id = ?, name = ?, description = ?, population_json = ?, tags_json = ?, updated_at = ?
WHERE campaign_id = ? AND id = ?
`, record.ParentID, record.Name, record.Description, populationJSON, tagsJSON,
		toMillis(record.UpdatedAt), record.CampaignID, record.ID)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update location rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteLocation removes one location row.
func (s *Store) DeleteLocation(ctx context.Context, campaignID string, locationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM locations WHERE campaign_id = ? AND id = ?
`, campaignID, locationID)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete location rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListChildren lists the direct children of one location, stable by name
// then id within a single snapshot.
func (s *Store) ListChildren(ctx context.Context, campaignID string, parentID string) ([]storage.LocationRecord, error) {
	return s.listByParent(ctx, campaignID, parentID)
}

// ListRoots lists every location in the campaign without a parent.
func (s *Store) ListRoots(ctx context.Context, campaignID string) ([]storage.LocationRecord, error) {
	return s.listByParent(ctx, campaignID, "")
}

func (s *Store) listByParent(ctx context.Context, campaignID string, parentID string) ([]storage.LocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+locationColumns+`
FROM locations
WHERE campaign_id = ? AND parent_id = ?
ORDER BY name, id
`, campaignID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list locations by parent: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []storage.LocationRecord
	for rows.Next() {
		record, err := scanLocation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan location row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location rows: %w", err)
	}
	return records, nil
}

// DeleteCampaign removes every location row scoped to the campaign.
func (s *Store) DeleteCampaign(ctx context.Context, campaignID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM locations WHERE campaign_id = ?
`, campaignID); err != nil {
		return fmt.Errorf("delete campaign locations: %w", err)
	}
	return nil
}

func encodeCollections(record storage.LocationRecord) (string, string, error) {
	population := record.Population
	if population == nil {
		population = []storage.PopulationGroup{}
	}
	populationJSON, err := json.Marshal(population)
	if err != nil {
		return "", "", fmt.Errorf("encode population: %w", err)
	}
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return string(populationJSON), string(tagsJSON), nil
}

func scanLocation(scan func(dest ...any) error) (storage.LocationRecord, error) {
	var (
		record         storage.LocationRecord
		populationJSON string
		tagsJSON       string
		createdAt      int64
		updatedAt      int64
	)
	if err := scan(&record.ID, &record.CampaignID, &record.ParentID, &record.Name,
		&record.Description, &populationJSON, &tagsJSON, &createdAt, &updatedAt); err != nil {
		return storage.LocationRecord{}, err
	}
	if err := json.Unmarshal([]byte(populationJSON), &record.Population); err != nil {
		return storage.LocationRecord{}, fmt.Errorf("decode population: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &record.Tags); err != nil {
		return storage.LocationRecord{}, fmt.Errorf("decode tags: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
