package rides

import (
	"ride-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func findCircle(tx *gorm.DB, slug string) (*domain.Circle, error) {
	var c domain.Circle
	if err := tx.Where("slug_name = ?", slug).First(&c).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCircleNotFound
		}
		return nil, err
	}
	return &c, nil
}

func lockCircle(tx *gorm.DB, slug string) (*domain.Circle, error) {
	return findCircle(tx.Clauses(clause.Locking{Strength: "UPDATE"}), slug)
}

func lockRide(tx *gorm.DB, circleID, rideID uuid.UUID) (*domain.Ride, error) {
	var r domain.Ride
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ride_id = ? AND offered_in = ?", rideID, circleID).
		First(&r).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrRideNotFound
		}
		return nil, err
	}
	return &r, nil
}

func reloadRide(tx *gorm.DB, r *domain.Ride) error {
	return tx.Preload("Passengers").Where("ride_id = ?", r.RideID).First(r).Error
}

// bumpRollups increments column on the circle, the membership and the
// user's profile, in that order. All three move together or not at all.
func bumpRollups(tx *gorm.DB, column string, circleID, membershipID, userID uuid.UUID) error {
	expr := gorm.Expr(column + " + 1")
	if err := tx.Model(&domain.Circle{}).Where("circle_id = ?", circleID).Update(column, expr).Error; err != nil {
		return err
	}
	if err := tx.Model(&domain.Membership{}).Where("membership_id = ?", membershipID).Update(column, expr).Error; err != nil {
		return err
	}
	return tx.Model(&domain.Profile{}).Where("user_id = ?", userID).Update(column, expr).Error
}
