package events

import (
	"context"
	"encoding/json"

	"ride-backend/internal/application/policies"
	"ride-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record appends an event using tx, so it commits or rolls back with the change it describes.
func Record(tx *gorm.DB, circleID uuid.UUID, eventType string, actor *uuid.UUID, data map[string]interface{}) error {
	var payload datatypes.JSON
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(b)
	}
	return tx.Create(&domain.CircleEvent{
		CircleID:    circleID,
		EventType:   eventType,
		ActorUserID: actor,
		EventData:   payload,
	}).Error
}

type Service struct {
	DB *gorm.DB
}

// ListForCircle returns the activity of a circle, oldest first. Admins only.
func (s *Service) ListForCircle(ctx context.Context, slug string, actor uuid.UUID) ([]domain.CircleEvent, error) {
	db := s.DB.WithContext(ctx)

	var circle domain.Circle
	if err := db.Where("slug_name = ?", slug).First(&circle).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCircleNotFound
		}
		return nil, err
	}

	var membership domain.Membership
	err := db.Where("circle_id = ? AND user_id = ? AND is_active = ?", circle.CircleID, actor, true).First(&membership).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	var actorMembership *domain.Membership
	if err == nil {
		actorMembership = &membership
	}
	if !policies.CanAdministerCircle(actor, policies.CircleAccess{Circle: &circle, Actor: actorMembership}) {
		return nil, domain.ErrNotAuthorized
	}

	var out []domain.CircleEvent
	if err := db.Where("circle_id = ?", circle.CircleID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
