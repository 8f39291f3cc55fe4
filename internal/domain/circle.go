package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxMembersLimit caps membersLimit on limited circles.
const MaxMembersLimit = 32000

// Circle is an invite-only group within which rides are offered and taken.
// RidesOffered and RidesTaken are rollups written only by the ride engine.
type Circle struct {
	CircleID     uuid.UUID `gorm:"column:circle_id;type:uuid;primaryKey" json:"circle_id"`
	Name         string    `gorm:"column:name;type:varchar(140);not null" json:"name"`
	SlugName     string    `gorm:"column:slug_name;type:varchar(40);not null;uniqueIndex" json:"slug_name"`
	About        string    `gorm:"column:about;type:varchar(255)" json:"about"`
	Picture      *string   `gorm:"column:picture" json:"picture"`
	IsPublic     bool      `gorm:"column:is_public;not null" json:"is_public"`
	Verified     bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	IsLimited    bool      `gorm:"column:is_limited;not null;default:false" json:"is_limited"`
	MembersLimit int       `gorm:"column:members_limit;not null;default:0" json:"members_limit"`
	RidesOffered int       `gorm:"column:rides_offered;not null;default:0" json:"rides_offered"`
	RidesTaken   int       `gorm:"column:rides_taken;not null;default:0" json:"rides_taken"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Circle) TableName() string {
	return "Circles"
}

func (c *Circle) BeforeCreate(tx *gorm.DB) error {
	if c.CircleID == uuid.Nil {
		c.CircleID = uuid.New()
	}
	return nil
}
