package memberships

import (
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateInput describes a new membership. Zero values give a plain member
// with no invitation quota.
type CreateInput struct {
	UserID               uuid.UUID
	CircleID             uuid.UUID
	InvitedBy            *uuid.UUID
	IsAdmin              bool
	RemainingInvitations int
}

// Create inserts an active membership. It fails with ErrDuplicateMembership
// when the user already holds an active membership in the circle.
func Create(tx *gorm.DB, in CreateInput) (*domain.Membership, error) {
	active, err := isActiveMember(tx, in.CircleID, in.UserID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrDuplicateMembership
	}
	m := &domain.Membership{
		UserID:               in.UserID,
		CircleID:             in.CircleID,
		InvitedBy:            in.InvitedBy,
		IsAdmin:              in.IsAdmin,
		IsActive:             true,
		RemainingInvitations: in.RemainingInvitations,
	}
	if err := tx.Create(m).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, domain.ErrDuplicateMembership
		}
		return nil, err
	}
	return m, nil
}

// FindActive returns the user's active membership in circle, or ErrMembershipNotFound.
func FindActive(tx *gorm.DB, circleID, userID uuid.UUID) (*domain.Membership, error) {
	return findActive(tx, circleID, userID)
}

// LockActive is FindActive with a row lock held until the transaction ends.
func LockActive(tx *gorm.DB, circleID, userID uuid.UUID) (*domain.Membership, error) {
	return findActive(tx.Clauses(clause.Locking{Strength: "UPDATE"}), circleID, userID)
}

func findActive(tx *gorm.DB, circleID, userID uuid.UUID) (*domain.Membership, error) {
	var m domain.Membership
	err := tx.Where("circle_id = ? AND user_id = ? AND is_active = ?", circleID, userID, true).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

func isActiveMember(tx *gorm.DB, circleID, userID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&domain.Membership{}).
		Where("circle_id = ? AND user_id = ? AND is_active = ?", circleID, userID, true).
		Count(&n).Error
	return n > 0, err
}

// ActiveCount counts the circle's active members.
func ActiveCount(tx *gorm.DB, circleID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&domain.Membership{}).
		Where("circle_id = ? AND is_active = ?", circleID, true).
		Count(&n).Error
	return n, err
}

// Deactivate soft-deletes m. Deactivating twice is a no-op.
func Deactivate(tx *gorm.DB, m *domain.Membership) error {
	res := tx.Model(&domain.Membership{}).
		Where("membership_id = ? AND is_active = ?", m.MembershipID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	m.IsActive = false
	return nil
}

// creditIssuer records one redeemed invitation against the issuer's latest
// membership in the circle. Remaining never drops below zero.
func creditIssuer(tx *gorm.DB, circleID, issuer uuid.UUID) error {
	var m domain.Membership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("circle_id = ? AND user_id = ?", circleID, issuer).
		Order("is_active DESC, joined_at DESC").
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&domain.Membership{}).
		Where("membership_id = ?", m.MembershipID).
		Updates(map[string]interface{}{
			"used_invitations":      gorm.Expr("used_invitations + 1"),
			"remaining_invitations": gorm.Expr("CASE WHEN remaining_invitations > 0 THEN remaining_invitations - 1 ELSE 0 END"),
		}).Error
}
