package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership links a user to a circle. Leaving a circle flips IsActive;
// rows are never removed so invitation and ride history stays intact.
// (user_id, circle_id) is unique among active rows only.
type Membership struct {
	MembershipID         uuid.UUID  `gorm:"column:membership_id;type:uuid;primaryKey" json:"membership_id"`
	UserID               uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_memberships_active_member,where:is_active = true" json:"user_id"`
	CircleID             uuid.UUID  `gorm:"column:circle_id;type:uuid;not null;index;uniqueIndex:idx_memberships_active_member" json:"circle_id"`
	IsAdmin              bool       `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	IsActive             bool       `gorm:"column:is_active;not null" json:"is_active"`
	UsedInvitations      int        `gorm:"column:used_invitations;not null;default:0" json:"used_invitations"`
	RemainingInvitations int        `gorm:"column:remaining_invitations;not null;default:0" json:"remaining_invitations"`
	InvitedBy            *uuid.UUID `gorm:"column:invited_by;type:uuid;index" json:"invited_by"`
	RidesTaken           int        `gorm:"column:rides_taken;not null;default:0" json:"rides_taken"`
	RidesOffered         int        `gorm:"column:rides_offered;not null;default:0" json:"rides_offered"`
	JoinedAt             time.Time  `gorm:"column:joined_at;not null" json:"joined_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	User   *User   `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Circle *Circle `gorm:"foreignKey:CircleID;references:CircleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Membership) TableName() string {
	return "Memberships"
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.MembershipID == uuid.Nil {
		m.MembershipID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}
