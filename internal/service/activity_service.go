package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
)

// Change is one field-level difference recorded on an activity entry
type Change struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Diff compares two field snapshots and keeps only the fields that changed.
// A field present on one side only is reported with nil on the other.
func Diff(before, after map[string]interface{}) map[string]Change {
	out := map[string]Change{}
	for k, nv := range after {
		ov, ok := before[k]
		if !ok || !reflect.DeepEqual(ov, nv) {
			out[k] = Change{Old: ov, New: nv}
		}
	}
	for k, ov := range before {
		if _, ok := after[k]; !ok {
			out[k] = Change{Old: ov, New: nil}
		}
	}
	return out
}

type ActivityEntryResponse struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Action     string            `json:"action"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorName  string            `json:"actor_name"`
	Changes    map[string]Change `json:"changes"`
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	CreatedAt  time.Time         `json:"created_at"`
}

type ActivityService interface {
	// Record appends an entry for the actor in ctx; call it inside the mutation's transaction
	Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, changes map[string]Change) error
	Feed(ctx context.Context, entityType, entityID string, p pagination.Params) ([]ActivityEntryResponse, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

var activityEntityTypes = map[string]bool{
	model.EntitySupplier:  true,
	model.EntityProduct:   true,
	model.EntityUser:      true,
	model.EntityRFQ:       true,
	model.EntityQuotation: true,
}

func (s *activityService) Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, changes map[string]Change) error {
	actor := ActorFrom(ctx)
	if changes == nil {
		changes = map[string]Change{}
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to encode activity changes: %w", err)
	}

	entry := &model.ActivityLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Changes:    string(payload),
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

func (s *activityService) Feed(ctx context.Context, entityType, entityID string, p pagination.Params) ([]ActivityEntryResponse, int64, error) {
	if !activityEntityTypes[entityType] {
		return nil, 0, invalid("entity_type", "must be one of: supplier, product, user, rfq, quotation")
	}
	id, err := uuid.Parse(entityID)
	if err != nil {
		return nil, 0, invalid("entity_id", "must be a UUID")
	}

	entries, total, err := s.repo.Feed(ctx, repository.ActivityQuery{
		EntityType: entityType,
		EntityID:   id,
		Search:     p.Search,
		Limit:      p.PerPage,
		Offset:     p.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch activity: %w", err)
	}

	res := make([]ActivityEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toActivityResponse(e))
	}
	return res, total, nil
}

func toActivityResponse(e model.ActivityLog) ActivityEntryResponse {
	changes := map[string]Change{}
	if e.Changes != "" {
		_ = json.Unmarshal([]byte(e.Changes), &changes)
	}
	actorID := ""
	if e.ActorID != nil {
		actorID = e.ActorID.String()
	}
	return ActivityEntryResponse{
		ID:         e.ID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		Action:     e.Action,
		ActorID:    actorID,
		ActorName:  e.ActorName,
		Changes:    changes,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}
