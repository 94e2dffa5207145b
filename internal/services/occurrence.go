package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ilumina-bknd/internal/models"
	"ilumina-bknd/internal/utils"
)

type OccurrenceService struct {
	db *bun.DB
}

func NewOccurrenceService(db *bun.DB) *OccurrenceService {
	return &OccurrenceService{db: db}
}

type CreateOccurrenceRequest struct {
	PoleID      string      `json:"pole_id"`
	Description *string     `json:"description,omitempty"`
	Category    string      `json:"category"`
	Phone       string      `json:"phone"`
	Location    *[2]float64 `json:"location,omitempty"` // [lat, lng]
}

type CreateOccurrenceResponse struct {
	ID       uuid.UUID `json:"id"`
	Protocol string    `json:"protocol"`
}

// newProtocol builds the public tracking number, e.g. ZU-2026-0482.
// The format is carried over from the existing system; collisions are
// possible and tolerated, tracking returns the newest match.
func newProtocol(now time.Time) string {
	return fmt.Sprintf("ZU-%d-%04d", now.Year(), rand.Intn(10000))
}

// Create registers a citizen report. The category is looked up by name
// and auto-provisioned when unknown, so the mobile portal can introduce
// new categories without a deploy.
func (s *OccurrenceService) Create(ctx context.Context, req CreateOccurrenceRequest) (*CreateOccurrenceResponse, error) {
	poleID, err := uuid.Parse(req.PoleID)
	if err != nil {
		return nil, fmt.Errorf("invalid pole id: %w", err)
	}

	var category models.Category
	err = s.db.NewSelect().Model(&category).Where("name = ?", req.Category).Scan(ctx)
	if err == sql.ErrNoRows {
		desc := "Categoria criada automaticamente"
		category = models.Category{Name: req.Category, Description: &desc, Active: true}
		if _, err := s.db.NewInsert().Model(&category).Exec(ctx); err != nil {
			return nil, fmt.Errorf("create category: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	desc := "Relato via App"
	if req.Description != nil && *req.Description != "" {
		desc = *req.Description
	}

	occ := models.Occurrence{
		Protocol:      newProtocol(time.Now()),
		Title:         req.Category,
		Description:   &desc,
		Status:        models.OccurrenceOpen,
		Priority:      "medium",
		CategoryID:    &category.ID,
		PoleID:        &poleID,
		ReporterPhone: &req.Phone,
	}
	if req.Location != nil {
		occ.Latitude = &req.Location[0]
		occ.Longitude = &req.Location[1]
	}

	if _, err := s.db.NewInsert().Model(&occ).Exec(ctx); err != nil {
		return nil, fmt.Errorf("create occurrence: %w", err)
	}

	return &CreateOccurrenceResponse{ID: occ.ID, Protocol: occ.Protocol}, nil
}

// TrackByProtocol is the public lookup behind "where is my report".
func (s *OccurrenceService) TrackByProtocol(ctx context.Context, protocol string) (*models.Occurrence, error) {
	occ := new(models.Occurrence)
	err := s.db.NewSelect().Model(occ).
		Relation("Pole").
		Relation("Category").
		Where("protocol = ?", protocol).
		Order("occ.created_at DESC").
		Limit(1).
		Scan(ctx)
	return occ, err
}

type OccurrenceQueryParams struct {
	Page     int
	Limit    int
	Statuses []string
}

type OccurrenceQueryResult struct {
	Data []models.Occurrence `json:"data"`
	Meta any                 `json:"meta"`
}

// Query lists occurrences for the staff dashboard.
func (s *OccurrenceService) Query(ctx context.Context, r *http.Request) (*OccurrenceQueryResult, error) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	statuses := utils.ParseQueryList(q, "statuses")

	sel := s.db.NewSelect().Model((*models.Occurrence)(nil)).
		Relation("Pole").
		Relation("Category")
	if len(statuses) > 0 {
		sel = sel.Where("occ.status IN (?)", bun.In(statuses))
	}

	total, err := sel.Count(ctx)
	if err != nil {
		return nil, err
	}

	var occurrences []models.Occurrence
	err = sel.Order("occ.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(ctx, &occurrences)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": (total + limit - 1) / limit, // ceil
	}
	return &OccurrenceQueryResult{Data: occurrences, Meta: meta}, nil
}

var validStatuses = map[string]bool{
	models.OccurrenceOpen:       true,
	models.OccurrenceInProgress: true,
	models.OccurrenceResolved:   true,
	models.OccurrenceClosed:     true,
	models.OccurrenceCancelled:  true,
}

// UpdateStatus transitions an occurrence and stamps resolved_at when it
// reaches resolved.
func (s *OccurrenceService) UpdateStatus(ctx context.Context, id string, status string) (*models.Occurrence, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	occ := new(models.Occurrence)
	err := s.db.NewSelect().Model(occ).Where("occ.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	occ.Status = status
	occ.UpdatedAt = time.Now().UTC()
	if status == models.OccurrenceResolved && occ.ResolvedAt == nil {
		now := time.Now().UTC()
		occ.ResolvedAt = &now
	}

	_, err = s.db.NewUpdate().Model(occ).
		Column("status", "updated_at", "resolved_at").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return occ, nil
}
