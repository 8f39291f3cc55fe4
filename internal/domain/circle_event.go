package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Circle event types.
const (
	EventCircleCreated     = "CIRCLE_CREATED"
	EventCircleUpdated     = "CIRCLE_UPDATED"
	EventMemberJoined      = "MEMBER_JOINED"
	EventMemberLeft        = "MEMBER_LEFT"
	EventInvitationsIssued = "INVITATIONS_ISSUED"
	EventRideOffered       = "RIDE_OFFERED"
	EventRideJoined        = "RIDE_JOINED"
	EventRideUpdated       = "RIDE_UPDATED"
	EventRideFinished      = "RIDE_FINISHED"
)

// CircleEvent is an append-only activity record, written in the same
// transaction as the change it describes.
type CircleEvent struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	CircleID    uuid.UUID      `gorm:"column:circle_id;type:uuid;not null;index" json:"circle_id"`
	EventType   string         `gorm:"column:event_type;type:varchar(40);not null" json:"event_type"`
	ActorUserID *uuid.UUID     `gorm:"column:actor_user_id;type:uuid" json:"actor_user_id"`
	EventData   datatypes.JSON `gorm:"column:event_data;type:json" json:"event_data"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (CircleEvent) TableName() string {
	return "CircleEvents"
}

func (e *CircleEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
