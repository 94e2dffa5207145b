package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Occurrence statuses. Values match the existing production enum.
const (
	OccurrenceOpen       = "open"
	OccurrenceInProgress = "in_progress"
	OccurrenceResolved   = "resolved"
	OccurrenceClosed     = "closed"
	OccurrenceCancelled  = "cancelled"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID          uuid.UUID `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description *string   `bun:"description" json:"description,omitempty"`
	Active      bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Occurrence is a citizen report against a pole, tracked publicly by its
// protocol number.
type Occurrence struct {
	bun.BaseModel `bun:"table:occurrences,alias:occ"`

	ID            uuid.UUID  `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Protocol      string     `bun:"protocol,notnull" json:"protocol"`
	Title         string     `bun:"title,notnull" json:"title"`
	Description   *string    `bun:"description" json:"description,omitempty"`
	Status        string     `bun:"status,notnull,default:'open'" json:"status"`
	Priority      string     `bun:"priority,notnull,default:'medium'" json:"priority"`
	CategoryID    *uuid.UUID `bun:"category_id,type:uuid" json:"category_id,omitempty"`
	PoleID        *uuid.UUID `bun:"pole_id,type:uuid" json:"pole_id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	ReporterName  *string    `bun:"reporter_name" json:"reporter_name,omitempty"`
	ReporterPhone *string    `bun:"reporter_phone" json:"reporter_phone,omitempty"`
	Latitude      *float64   `bun:"latitude" json:"latitude,omitempty"`
	Longitude     *float64   `bun:"longitude" json:"longitude,omitempty"`
	ResolvedAt    *time.Time `bun:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Pole     *Pole     `bun:"rel:belongs-to,join:pole_id=id" json:"pole,omitempty"`
	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}
