package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/shared"
)

const artistColumns = `id, name, catalog_id, created_at, updated_at`

var _ models.Repository[*models.CachedArtist] = (*ArtistRepository)(nil)

// ArtistRepository implements models.Repository[*models.CachedArtist] for resolved artist names.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new [models.CachedArtist] with a generated ID
func (r *ArtistRepository) Create(artist *models.CachedArtist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	query := `INSERT INTO artists (` + artistColumns + `) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, id, artist.Name(), artist.CatalogID(), artist.CreatedAt(), artist.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	artist.SetID(id)
	return nil
}

// Get retrieves an artist by ID
func (r *ArtistRepository) Get(id string) (*models.CachedArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByName retrieves an artist by the exact name it was scraped under
func (r *ArtistRepository) GetByName(name string) (*models.CachedArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE name = ?`
	return r.scan(r.db.QueryRow(query, name))
}

// Update changes the catalog ID of an existing artist
func (r *ArtistRepository) Update(artist *models.CachedArtist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	result, err := r.db.Exec(`UPDATE artists SET catalog_id = ?, updated_at = ? WHERE id = ?`, artist.CatalogID(), now, artist.ID())
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}
	if err := expectRow(result, artist.ID()); err != nil {
		return err
	}

	artist.SetUpdatedAt(now)
	return nil
}

// Upsert stores name → catalogID, replacing any earlier mapping for name
func (r *ArtistRepository) Upsert(name, catalogID string) error {
	artist := models.NewCachedArtist(name, catalogID)
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO artists (` + artistColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET catalog_id = excluded.catalog_id, updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, shared.GenerateID(), name, catalogID, artist.CreatedAt(), artist.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert artist: %w", err)
	}
	return nil
}

// Delete removes an artist by ID
func (r *ArtistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM artists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete artist: %w", err)
	}
	return expectRow(result, id)
}

// List retrieves cached artists ordered by name.
//
// Supported criteria: "catalog_id" (string) and "limit" (int).
func (r *ArtistRepository) List(criteria map[string]any) ([]*models.CachedArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE 1 = 1`
	args := []any{}

	if catalogID, ok := criteria["catalog_id"].(string); ok && catalogID != "" {
		query += " AND catalog_id = ?"
		args = append(args, catalogID)
	}

	query += " ORDER BY name ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	artists := []*models.CachedArtist{}
	for rows.Next() {
		artist, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

// Clear deletes every cached artist and returns how many were removed
func (r *ArtistRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM artists`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear artists: %w", err)
	}
	return result.RowsAffected()
}

func (r *ArtistRepository) scan(row scanner) (*models.CachedArtist, error) {
	var (
		id        string
		name      string
		catalogID string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &name, &catalogID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artist %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	return models.RestoreCachedArtist(id, name, catalogID, createdAt, updatedAt), nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	return nil
}
