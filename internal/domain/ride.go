package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxRideSeats bounds the seats a ride can be offered with.
const MaxRideSeats = 15

// Ride is offered by an active member inside a circle.
// AvailableSeats + len(Passengers) == TotalSeats at all times.
type Ride struct {
	RideID            uuid.UUID `gorm:"column:ride_id;type:uuid;primaryKey" json:"ride_id"`
	OfferedBy         uuid.UUID `gorm:"column:offered_by;type:uuid;not null;index" json:"offered_by"`
	OfferedIn         uuid.UUID `gorm:"column:offered_in;type:uuid;not null;index" json:"offered_in"`
	AvailableSeats    int       `gorm:"column:available_seats;not null" json:"available_seats"`
	TotalSeats        int       `gorm:"column:total_seats;not null" json:"total_seats"`
	Comments          string    `gorm:"column:comments;type:text" json:"comments"`
	DepartureLocation string    `gorm:"column:departure_location;type:varchar(255);not null" json:"departure_location"`
	DepartureDate     time.Time `gorm:"column:departure_date;not null;index" json:"departure_date"`
	ArrivalLocation   string    `gorm:"column:arrival_location;type:varchar(255);not null" json:"arrival_location"`
	ArrivalDate       time.Time `gorm:"column:arrival_date;not null" json:"arrival_date"`
	Rating            *float64  `gorm:"column:rating" json:"rating"`
	IsActive          bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Passengers []RidePassenger `gorm:"foreignKey:RideID;references:RideID" json:"passengers"`
}

func (Ride) TableName() string {
	return "Rides"
}

func (r *Ride) BeforeCreate(tx *gorm.DB) error {
	if r.RideID == uuid.Nil {
		r.RideID = uuid.New()
	}
	return nil
}

// RidePassenger is one seat taken on a ride. The composite key keeps a
// passenger from holding two seats on the same ride.
type RidePassenger struct {
	RideID   uuid.UUID `gorm:"column:ride_id;type:uuid;primaryKey" json:"ride_id"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	JoinedAt time.Time `gorm:"column:joined_at;not null" json:"joined_at"`
}

func (RidePassenger) TableName() string {
	return "RidePassengers"
}
