package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Pole is the canonical inventory entity. ExternalID is the stable
// business identifier coming from the physical-inventory feed and is the
// reconciliation key: re-ingesting the same ExternalID never creates a
// second row.
type Pole struct {
	bun.BaseModel `bun:"table:poles,alias:pl"`

	ID         uuid.UUID  `bun:",pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	ExternalID string     `bun:"external_id,notnull,unique" json:"external_id"`
	Latitude   float64    `bun:"latitude,notnull" json:"latitude"`
	Longitude  float64    `bun:"longitude,notnull" json:"longitude"`
	LampType   *string    `bun:"lamp_type" json:"lamp_type"`
	PowerW     int        `bun:"power_w,default:0" json:"power_w"`
	IPs        []string   `bun:"ips,array" json:"ips"`
	AddressID  *uuid.UUID `bun:"address_id,type:uuid" json:"address_id,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
