// Package postgres implements the Data-Store and Catalog collaborators
// on top of a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campotech-ai-engine/internal/ports"
	"campotech-ai-engine/platform/apperr"
)

// Store implements ports.Store against the jobs/messages/review_queue
// tables.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore builds a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateJob inserts a job row sourced from a voice-intake extraction.
func (s *Store) CreateJob(ctx context.Context, orgID, phone string, extraction interface{}, source string) (ports.CreatedJob, error) {
	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return ports.CreatedJob{}, fmt.Errorf("marshal extraction: %w", err)
	}

	query := `
		INSERT INTO jobs (id, organization_id, customer_phone, extraction, source, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id`

	id := uuid.New()
	var returnedID uuid.UUID
	if err := s.pool.QueryRow(ctx, query, id, orgID, phone, extractionJSON, source).Scan(&returnedID); err != nil {
		return ports.CreatedJob{}, fmt.Errorf("create job: %w", err)
	}
	return ports.CreatedJob{ID: returnedID.String()}, nil
}

// EnqueueReview inserts a row for manual operator follow-up.
func (s *Store) EnqueueReview(ctx context.Context, orgID, messageID, transcription string, extraction interface{}, confidence float64, phone string) error {
	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}

	query := `
		INSERT INTO review_queue (id, organization_id, message_id, transcription, extraction, confidence, customer_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`

	if _, err := s.pool.Exec(ctx, query, uuid.New(), orgID, messageID, transcription, extractionJSON, confidence, phone); err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}
	return nil
}

// UpdateMessage applies a sparse patch to a persisted message record.
func (s *Store) UpdateMessage(ctx context.Context, messageID string, update ports.MessageUpdate) error {
	var extractionJSON []byte
	if update.Extraction != nil {
		b, err := json.Marshal(update.Extraction)
		if err != nil {
			return fmt.Errorf("marshal extraction: %w", err)
		}
		extractionJSON = b
	}

	query := `
		UPDATE messages SET
			transcription = COALESCE($2, transcription),
			extraction = COALESCE($3, extraction),
			confidence = COALESCE($4, confidence),
			status = COALESCE($5, status),
			detected_language = COALESCE($6, detected_language),
			original_content = COALESCE($7, original_content),
			translated_content = COALESCE($8, translated_content),
			updated_at = now()
		WHERE id = $1`

	result, err := s.pool.Exec(ctx, query, messageID,
		update.Transcription, extractionJSON, update.Confidence, update.Status,
		update.DetectedLanguage, update.OriginalContent, update.TranslatedContent)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

// CatalogReader implements ports.CatalogReader against the priced catalog
// table.
type CatalogReader struct {
	pool *pgxpool.Pool
}

// NewCatalogReader builds a CatalogReader.
func NewCatalogReader(pool *pgxpool.Pool) *CatalogReader {
	return &CatalogReader{pool: pool}
}

// ListPriceItems fetches an organization's priced catalog.
func (c *CatalogReader) ListPriceItems(ctx context.Context, orgID string) ([]ports.CatalogEntry, error) {
	query := `
		SELECT id, name, description, price, unit, type
		FROM catalog_entries
		WHERE organization_id = $1
		ORDER BY name`

	rows, err := c.pool.Query(ctx, query, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("list price items: %w", err)
	}
	defer rows.Close()

	entries := make([]ports.CatalogEntry, 0)
	for rows.Next() {
		var e ports.CatalogEntry
		var description *string
		if err := rows.Scan(&e.ID, &e.Name, &description, &e.Price, &e.Unit, &e.Type); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		if description != nil {
			e.Description = *description
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", rows.Err())
	}
	return entries, nil
}
