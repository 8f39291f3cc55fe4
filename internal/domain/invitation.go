package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation is a single-use code granting membership in one circle.
// Codes are unique across every circle. Used is true iff UsedBy and UsedAt are set,
// and a used invitation is never reopened.
type Invitation struct {
	InvitationID uuid.UUID  `gorm:"column:invitation_id;type:uuid;primaryKey" json:"invitation_id"`
	Code         string     `gorm:"column:code;type:varchar(50);not null;uniqueIndex" json:"code"`
	CircleID     uuid.UUID  `gorm:"column:circle_id;type:uuid;not null;index:idx_invitations_issuer" json:"circle_id"`
	IssuedBy     uuid.UUID  `gorm:"column:issued_by;type:uuid;not null;index:idx_invitations_issuer" json:"issued_by"`
	UsedBy       *uuid.UUID `gorm:"column:used_by;type:uuid" json:"used_by"`
	Used         bool       `gorm:"column:used;not null;default:false" json:"used"`
	UsedAt       *time.Time `gorm:"column:used_at" json:"used_at"`
	CreatedAt    time.Time  `json:"created_at"`

	Circle *Circle `gorm:"foreignKey:CircleID;references:CircleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Invitation) TableName() string {
	return "Invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InvitationID == uuid.Nil {
		i.InvitationID = uuid.New()
	}
	return nil
}
