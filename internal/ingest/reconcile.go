package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ilumina-bknd/internal/models"
)

const (
	// batchSize bounds the rows per insert statement.
	batchSize = 100

	// The feed marks unknown coordinates as zero. The service area is
	// interior Brazil, so a real pole can never sit on the equator or
	// the prime meridian; a deployment elsewhere must replace this
	// sentinel with an explicit missing-value marker.
	missingCoordinate = 0
)

// PoleStore is the storage contract for bulk import: insert what is
// new, silently skip what already exists by external id, return the ids
// actually inserted.
type PoleStore interface {
	InsertIgnoringConflict(ctx context.Context, poles []models.Pole) ([]uuid.UUID, error)
}

// Report summarizes one reconciliation run.
type Report struct {
	RowsRead     int `json:"rows_read"`
	RowsDropped  int `json:"rows_dropped"`
	RowsValid    int `json:"rows_valid"`
	PolesGrouped int `json:"poles_grouped"`
	Inserted     int `json:"inserted"`
	Skipped      int `json:"skipped"`
}

type Reconciler struct {
	store PoleStore
	logr  *zap.Logger
}

func NewReconciler(store PoleStore, logr *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logr: logr}
}

// Run validates, groups and upserts a full feed. Row-level problems
// drop the row and continue; a storage failure aborts the run with the
// partial report. Batches already committed stand; re-running is safe
// because inserts ignore conflicts.
func (r *Reconciler) Run(ctx context.Context, rows []RawRow) (Report, error) {
	report := Report{RowsRead: len(rows)}

	valid := make([]RawRow, 0, len(rows))
	for _, row := range rows {
		if !rowValid(row) {
			report.RowsDropped++
			continue
		}
		valid = append(valid, row)
	}
	report.RowsValid = len(valid)

	poles := groupByExternalID(valid)
	report.PolesGrouped = len(poles)

	r.logr.Info("feed validated",
		zap.Int("rows_read", report.RowsRead),
		zap.Int("rows_dropped", report.RowsDropped),
		zap.Int("poles", report.PolesGrouped))

	for start := 0; start < len(poles); start += batchSize {
		end := start + batchSize
		if end > len(poles) {
			end = len(poles)
		}
		batch := poles[start:end]

		ids, err := r.store.InsertIgnoringConflict(ctx, batch)
		if err != nil {
			return report, fmt.Errorf("insert batch %d-%d: %w", start, end, err)
		}
		report.Inserted += len(ids)
		report.Skipped += len(batch) - len(ids)

		r.logr.Info("batch committed",
			zap.Int("processed", end),
			zap.Int("total", len(poles)),
			zap.Int("inserted_in_batch", len(ids)))
	}

	return report, nil
}

// rowValid applies the structural checks: a row must name its pole and
// carry usable, non-sentinel coordinates. Everything else (power, lamp
// type, IP id) is optional.
func rowValid(row RawRow) bool {
	if row.PoleExternalID == "" {
		return false
	}
	if !row.LatLngOK {
		return false
	}
	if row.Latitude == missingCoordinate || row.Longitude == missingCoordinate {
		return false
	}
	return true
}

// groupByExternalID collapses per-IP rows into one pole per external
// id, in first-seen order. The first row wins for location and lamp
// attributes; later rows only contribute their IP identifier, without
// duplicates.
func groupByExternalID(rows []RawRow) []models.Pole {
	index := map[string]int{}
	seenIP := map[string]map[string]bool{}
	var poles []models.Pole

	for _, row := range rows {
		i, ok := index[row.PoleExternalID]
		if !ok {
			i = len(poles)
			index[row.PoleExternalID] = i
			seenIP[row.PoleExternalID] = map[string]bool{}
			poles = append(poles, models.Pole{
				ExternalID: row.PoleExternalID,
				Latitude:   row.Latitude,
				Longitude:  row.Longitude,
				LampType:   row.LampType,
				PowerW:     row.PowerW,
				IPs:        []string{},
			})
		}
		if row.IPIdentifier != "" && !seenIP[row.PoleExternalID][row.IPIdentifier] {
			seenIP[row.PoleExternalID][row.IPIdentifier] = true
			poles[i].IPs = append(poles[i].IPs, row.IPIdentifier)
		}
	}
	return poles
}
