package policies

import (
	"ride-backend/internal/domain"

	"github.com/google/uuid"
)

// CircleAccess is what circle-scoped rules decide on. Actor is the acting
// user's active membership in Circle (nil when there is none); Target is the
// membership being acted upon, if any.
type CircleAccess struct {
	Circle *domain.Circle
	Actor  *domain.Membership
	Target *domain.Membership
}

var IsActiveMember Rule[CircleAccess] = func(actor uuid.UUID, r CircleAccess) bool {
	return r.Circle != nil && r.Actor != nil &&
		r.Actor.IsActive &&
		r.Actor.UserID == actor &&
		r.Actor.CircleID == r.Circle.CircleID
}

var IsCircleAdmin Rule[CircleAccess] = func(actor uuid.UUID, r CircleAccess) bool {
	return IsActiveMember(actor, r) && r.Actor.IsAdmin
}

var OwnsTargetMembership Rule[CircleAccess] = func(actor uuid.UUID, r CircleAccess) bool {
	return r.Target != nil && r.Target.UserID == actor
}

var (
	CanViewMembers        = IsActiveMember
	CanAdministerCircle   = IsCircleAdmin
	CanLeave              = All(IsActiveMember, Any(IsCircleAdmin, OwnsTargetMembership))
	CanRequestInvitations = All(IsActiveMember, OwnsTargetMembership)
)
