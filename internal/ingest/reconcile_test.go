package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ilumina-bknd/internal/models"
)

// fakeStore keeps poles in memory keyed by external id, with the same
// conflict semantics as the Postgres store.
type fakeStore struct {
	byExternalID map[string]models.Pole
	batchSizes   []int
	failAtBatch  int // 1-based; 0 means never fail
}

func newFakeStore() *fakeStore {
	return &fakeStore{byExternalID: map[string]models.Pole{}}
}

func (s *fakeStore) InsertIgnoringConflict(_ context.Context, poles []models.Pole) ([]uuid.UUID, error) {
	s.batchSizes = append(s.batchSizes, len(poles))
	if s.failAtBatch > 0 && len(s.batchSizes) >= s.failAtBatch {
		return nil, errors.New("connection reset")
	}
	var ids []uuid.UUID
	for _, p := range poles {
		if _, exists := s.byExternalID[p.ExternalID]; exists {
			continue
		}
		p.ID = uuid.New()
		s.byExternalID[p.ExternalID] = p
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func row(poleID, ipID string, lat, lng float64) RawRow {
	return RawRow{
		PoleExternalID: poleID,
		IPIdentifier:   ipID,
		Latitude:       lat,
		Longitude:      lng,
		LatLngOK:       true,
	}
}

func TestRunGroupsIPsUnderOnePole(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	lamp := "LED"
	rows := []RawRow{
		{PoleExternalID: "A1", IPIdentifier: "IP1", Latitude: -22.786, Longitude: -50.205, LatLngOK: true, LampType: &lamp, PowerW: 100},
		{PoleExternalID: "A1", IPIdentifier: "IP2", Latitude: -22.786, Longitude: -50.205, LatLngOK: true, LampType: &lamp, PowerW: 100},
	}

	report, err := rec.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RowsRead)
	assert.Equal(t, 2, report.RowsValid)
	assert.Equal(t, 1, report.PolesGrouped)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 0, report.Skipped)

	p, ok := store.byExternalID["A1"]
	require.True(t, ok)
	assert.Equal(t, []string{"IP1", "IP2"}, p.IPs)
	assert.Equal(t, 100, p.PowerW)
	require.NotNil(t, p.LampType)
	assert.Equal(t, "LED", *p.LampType)
}

func TestRunDeduplicatesIPs(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	rows := []RawRow{
		row("A1", "IP1", -22.786, -50.205),
		row("A1", "IP1", -22.786, -50.205),
		row("A1", "", -22.786, -50.205),
		row("A1", "IP2", -22.786, -50.205),
	}
	_, err := rec.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"IP1", "IP2"}, store.byExternalID["A1"].IPs)
}

func TestRunFirstRowWinsAttributes(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	first := row("A1", "IP1", -22.786, -50.205)
	first.PowerW = 100
	second := row("A1", "IP2", -22.999, -50.999)
	second.PowerW = 250

	_, err := rec.Run(context.Background(), []RawRow{first, second})
	require.NoError(t, err)

	p := store.byExternalID["A1"]
	assert.InDelta(t, -22.786, p.Latitude, 1e-9)
	assert.InDelta(t, -50.205, p.Longitude, 1e-9)
	assert.Equal(t, 100, p.PowerW)
}

func TestRunDropsInvalidRows(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	badCoords := RawRow{PoleExternalID: "B2", IPIdentifier: "IP9", LatLngOK: false}
	rows := []RawRow{
		row("", "IP1", -22.786, -50.205),    // no pole id
		row("Z0", "IP2", 0, -50.205),        // zero latitude sentinel
		row("Z1", "IP3", -22.786, 0),        // zero longitude sentinel
		row("Z2", "IP4", 0, 0),              // both zero
		badCoords,                           // unparsable coordinates
		row("A1", "IP5", -22.786, -50.205),  // the one good row
	}

	report, err := rec.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 6, report.RowsRead)
	assert.Equal(t, 5, report.RowsDropped)
	assert.Equal(t, 1, report.RowsValid)
	assert.Equal(t, 1, report.PolesGrouped)
	assert.Len(t, store.byExternalID, 1)
	assert.Contains(t, store.byExternalID, "A1")
}

func TestRunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	rows := []RawRow{
		row("A1", "IP1", -22.786, -50.205),
		row("A2", "IP2", -22.787, -50.206),
		row("A3", "IP3", -22.788, -50.207),
	}

	first, err := rec.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Skipped)

	second, err := rec.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, first.Inserted, second.Skipped)
	assert.Len(t, store.byExternalID, 3)
}

func TestRunBatching(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	var rows []RawRow
	for i := 0; i < 250; i++ {
		rows = append(rows, row(uuid.NewString(), "", -22.786, -50.205))
	}

	report, err := rec.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 250, report.Inserted)
	assert.Equal(t, []int{100, 100, 50}, store.batchSizes)
}

func TestRunBatchFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.failAtBatch = 2
	rec := NewReconciler(store, zap.NewNop())

	var rows []RawRow
	for i := 0; i < 250; i++ {
		rows = append(rows, row(uuid.NewString(), "", -22.786, -50.205))
	}

	report, err := rec.Run(context.Background(), rows)
	require.Error(t, err)
	// The first batch stands; nothing after the failure was sent.
	assert.Equal(t, 100, report.Inserted)
	assert.Len(t, store.batchSizes, 2)
	assert.Len(t, store.byExternalID, 100)
}

func TestRunEmptyFeed(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, zap.NewNop())

	report, err := rec.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, store.batchSizes)
}
