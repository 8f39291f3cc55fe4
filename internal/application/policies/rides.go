package policies

import (
	"ride-backend/internal/domain"

	"github.com/google/uuid"
)

// RideAccess is what ride rules decide on. Actor is the acting user's active
// membership in the ride's circle, nil when there is none.
type RideAccess struct {
	Ride  *domain.Ride
	Actor *domain.Membership
}

var IsRideOwner Rule[RideAccess] = func(actor uuid.UUID, r RideAccess) bool {
	return r.Ride != nil && r.Ride.OfferedBy == actor
}

var IsRideCircleMember Rule[RideAccess] = func(actor uuid.UUID, r RideAccess) bool {
	return r.Ride != nil && r.Actor != nil &&
		r.Actor.IsActive &&
		r.Actor.UserID == actor &&
		r.Actor.CircleID == r.Ride.OfferedIn
}

var (
	CanEditRide = IsRideOwner
	CanEndRide  = IsRideOwner
	CanTakeSeat = Not(IsRideOwner)
)
