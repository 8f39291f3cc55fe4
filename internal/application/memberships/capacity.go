package memberships

import (
	"ride-backend/internal/domain"

	"gorm.io/gorm"
)

// CanAdmit reports whether circle has room for one more active member.
// Callers hold the circle row lock so the count cannot change underneath them.
func CanAdmit(tx *gorm.DB, circle *domain.Circle) (bool, error) {
	if !circle.IsLimited {
		return true, nil
	}
	n, err := ActiveCount(tx, circle.CircleID)
	if err != nil {
		return false, err
	}
	return n < int64(circle.MembersLimit), nil
}
