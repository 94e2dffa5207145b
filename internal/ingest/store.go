package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ilumina-bknd/internal/models"
)

// BunPoleStore implements PoleStore on the Postgres poles table.
type BunPoleStore struct {
	db *bun.DB
}

func NewBunPoleStore(db *bun.DB) *BunPoleStore {
	return &BunPoleStore{db: db}
}

// InsertIgnoringConflict inserts the batch, skipping rows whose
// external_id already exists. RETURNING only yields the rows actually
// inserted, so the caller can count skips from the difference.
func (s *BunPoleStore) InsertIgnoringConflict(ctx context.Context, poles []models.Pole) ([]uuid.UUID, error) {
	if len(poles) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := s.db.NewInsert().
		Model(&poles).
		On("CONFLICT (external_id) DO NOTHING").
		Returning("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
