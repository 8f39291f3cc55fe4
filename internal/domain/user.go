package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultReputation is the reputation a new profile starts with.
const DefaultReputation = 5.0

type User struct {
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Email        string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Username     string         `gorm:"column:username;type:varchar(40);not null;uniqueIndex" json:"username"`
	FirstName    string         `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string         `gorm:"column:last_name;not null" json:"last_name"`
	PhoneNumber  *string        `gorm:"column:phone_number;type:varchar(17)" json:"phone_number"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	IsVerified   bool           `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	IsClient     bool           `gorm:"column:is_client;not null" json:"is_client"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Profile *Profile `gorm:"foreignKey:UserID;references:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "Users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// Profile carries the public side of a user plus the ride rollups.
type Profile struct {
	ProfileID    uuid.UUID `gorm:"column:profile_id;type:uuid;primaryKey" json:"profile_id"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	Picture      *string   `gorm:"column:picture" json:"picture"`
	Biography    string    `gorm:"column:biography;type:varchar(500)" json:"biography"`
	RidesTaken   int       `gorm:"column:rides_taken;not null;default:0" json:"rides_taken"`
	RidesOffered int       `gorm:"column:rides_offered;not null;default:0" json:"rides_offered"`
	Reputation   float64   `gorm:"column:reputation;not null;default:5" json:"reputation"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "Profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ProfileID == uuid.Nil {
		p.ProfileID = uuid.New()
	}
	return nil
}
