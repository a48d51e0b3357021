package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity types that carry an activity trail
const (
	EntitySupplier  = "supplier"
	EntityProduct   = "product"
	EntityUser      = "user"
	EntityRFQ       = "rfq"
	EntityQuotation = "quotation"
)

// Activity actions
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"
	ActionAttached      = "products_attached"
	ActionSubmitted     = "submitted"
	ActionEvaluated     = "evaluated"
	ActionShortlisted   = "shortlisted"
	ActionAwarded       = "awarded"
)

// ActivityLog is an append-only audit record keyed by (entity_type, entity_id)
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id" db:"id"`
	EntityType string     `gorm:"type:varchar(30);not null;index:idx_activity_entity" json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_activity_entity" json:"entity_id" db:"entity_id"`
	Action     string     `gorm:"type:varchar(50);not null" json:"action" db:"action"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id" db:"actor_id"` // nil for system jobs
	ActorName  string     `gorm:"type:varchar(255)" json:"actor_name" db:"actor_name"`
	Changes    string     `gorm:"type:jsonb;not null;default:'{}'" json:"changes" db:"changes"` // {"field": {"old": ..., "new": ...}}
	IPAddress  string     `gorm:"type:varchar(64)" json:"ip_address" db:"ip_address"`
	UserAgent  string     `gorm:"type:text" json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at" db:"created_at"`
}
