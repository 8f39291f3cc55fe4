package domain

import "errors"

// Kind classifies an error for callers deciding whether to retry,
// report to the user, or page an operator.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindTransient
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "internal"
	}
}

// Error is a domain failure with a stable code.
// Wrap with fmt.Errorf("%w: detail", ErrX) to attach a reason.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidInput        = newError(KindValidation, "invalid_input", "Invalid input")
	ErrInvalidRideWindow   = newError(KindValidation, "invalid_ride_window", "Invalid ride window")
	ErrRideNotStarted      = newError(KindValidation, "ride_not_started", "Ride has not started yet")
	ErrInvalidToken        = newError(KindValidation, "invalid_token", "Invalid token")
	ErrCircleNotFound      = newError(KindNotFound, "circle_not_found", "Circle not found")
	ErrMembershipNotFound  = newError(KindNotFound, "membership_not_found", "Membership not found")
	ErrRideNotFound        = newError(KindNotFound, "ride_not_found", "Ride not found")
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "User not found")
	ErrNotAMember          = newError(KindForbidden, "not_a_member", "You are not a member of this circle")
	ErrNotAnActiveMember   = newError(KindForbidden, "not_an_active_member", "User is not an active member of the circle")
	ErrNotAuthorized       = newError(KindForbidden, "not_authorized", "You do not have permission to perform this action")
	ErrDuplicateSlug       = newError(KindConflict, "duplicate_slug", "Circle slug is already taken")
	ErrInvalidInvitation   = newError(KindConflict, "invalid_invitation", "Invalid invitation code")
	ErrAlreadyMember       = newError(KindConflict, "already_member", "User is already a member of this circle")
	ErrDuplicateMembership = newError(KindConflict, "duplicate_membership", "Active membership already exists")
	ErrCircleFull          = newError(KindConflict, "circle_full", "Circle has reached its members limit")
	ErrRideFull            = newError(KindConflict, "ride_full", "Ride is already full")
	ErrAlreadyAPassenger   = newError(KindConflict, "already_a_passenger", "Passenger already in this trip")
	ErrRideAlreadyStarted  = newError(KindConflict, "ride_already_started", "Ongoing rides cannot be modified")
	ErrRideInactive        = newError(KindConflict, "ride_inactive", "Ride is no longer active")
	ErrEmailTaken          = newError(KindConflict, "email_taken", "Email already in use")
	ErrUsernameTaken       = newError(KindConflict, "username_taken", "Username already in use")
	ErrStoreUnavailable    = newError(KindTransient, "store_unavailable", "Store unavailable, try again")
	ErrCodeSpaceExhausted  = newError(KindFatal, "code_space_exhausted", "Invitation code space exhausted")
)

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of the first domain error in err's chain, or "".
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
