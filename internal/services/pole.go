package services

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"ilumina-bknd/internal/geo"
	"ilumina-bknd/internal/models"
	"ilumina-bknd/internal/utils"
)

// snapshotTTL bounds how stale the in-memory inventory used by nearest
// queries may get. Ingestion is an offline job, so minutes are fine.
const snapshotTTL = 5 * time.Minute

type PoleService struct {
	db *bun.DB

	mu        sync.RWMutex
	snapshot  []models.Pole
	fetchedAt time.Time
}

func NewPoleService(db *bun.DB) *PoleService {
	return &PoleService{db: db}
}

type PoleQueryParams struct {
	Page      int
	Limit     int
	LampTypes []string
	Search    string
}

func parsePoleQuery(r *http.Request) PoleQueryParams {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	return PoleQueryParams{
		Page:      page,
		Limit:     limit,
		LampTypes: utils.ParseQueryList(q, "lampTypes"),
		Search:    q.Get("search"),
	}
}

type PoleQueryResult struct {
	Data []models.Pole `json:"data"`
	Meta any           `json:"meta"`
}

// QueryPoles lists the inventory with pagination, lamp-type filters and
// search over the external id or any of the per-lamp IP identifiers.
func (s *PoleService) QueryPoles(ctx context.Context, r *http.Request) (*PoleQueryResult, error) {
	params := parsePoleQuery(r)

	q := s.db.NewSelect().Model((*models.Pole)(nil))

	if len(params.LampTypes) > 0 {
		lower := stringsToLower(params.LampTypes)
		q = q.Where("LOWER(lamp_type) IN (?)", bun.In(lower))
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		q = q.Where("external_id ILIKE ? OR EXISTS (SELECT 1 FROM unnest(ips) ip WHERE ip ILIKE ?)", search, search)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}

	q = q.Order("external_id ASC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit)

	var poles []models.Pole
	if err := q.Scan(ctx, &poles); err != nil {
		return nil, err
	}

	meta := map[string]any{
		"page":  params.Page,
		"limit": params.Limit,
		"total": total,
		"pages": (total + params.Limit - 1) / params.Limit, // ceil
	}

	return &PoleQueryResult{Data: poles, Meta: meta}, nil
}

func (s *PoleService) GetPoleByID(ctx context.Context, id string) (*models.Pole, error) {
	p := new(models.Pole)
	err := s.db.NewSelect().Model(p).Where("id = ?", id).Scan(ctx)
	return p, err
}

func (s *PoleService) GetPoleByExternalID(ctx context.Context, externalID string) (*models.Pole, error) {
	p := new(models.Pole)
	err := s.db.NewSelect().Model(p).Where("external_id = ?", externalID).Scan(ctx)
	return p, err
}

// Nearest resolves the citizen's coordinate against the cached
// inventory snapshot.
func (s *PoleService) Nearest(ctx context.Context, lat, lng float64) (geo.Resolution, error) {
	poles, err := s.inventorySnapshot(ctx)
	if err != nil {
		return geo.Resolution{}, err
	}
	return geo.Resolve(geo.Point{Lat: lat, Lng: lng}, poles), nil
}

// inventorySnapshot returns the cached pole list, reloading it from
// storage once the TTL has passed.
func (s *PoleService) inventorySnapshot(ctx context.Context) ([]models.Pole, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Since(s.fetchedAt) < snapshotTTL {
		poles := s.snapshot
		s.mu.RUnlock()
		return poles, nil
	}
	s.mu.RUnlock()

	var poles []models.Pole
	err := s.db.NewSelect().Model(&poles).Order("external_id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = poles
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return poles, nil
}

// InvalidateSnapshot forces the next nearest query to reload the
// inventory. Called after an in-process import run.
func (s *PoleService) InvalidateSnapshot() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

func stringsToLower(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(v)
	}
	return out
}
