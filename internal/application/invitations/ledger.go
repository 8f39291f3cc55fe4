package invitations

import (
	"time"

	"ride-backend/internal/application/codes"
	"ride-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxCodeLength is the widest code the ledger stores.
const MaxCodeLength = 50

// Ledger functions take the caller's transaction so they compose into
// larger atomic units (join, reconcile).

// CodeTaken reports whether any invitation, in any circle, already uses code.
func CodeTaken(tx *gorm.DB, code string) (bool, error) {
	var n int64
	if err := tx.Model(&domain.Invitation{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// IssueOrReuse stores a new invitation for issuer in circle. hint is used as
// the code when it is free; otherwise a fresh code is generated.
func IssueOrReuse(tx *gorm.DB, gen *codes.Generator, circleID, issuer uuid.UUID, hint string) (*domain.Invitation, error) {
	exists := func(code string) (bool, error) { return CodeTaken(tx, code) }

	code := ""
	if hint != "" && len(hint) <= MaxCodeLength {
		taken, err := exists(hint)
		if err != nil {
			return nil, err
		}
		if !taken {
			code = hint
		}
	}
	if code == "" {
		var err error
		if code, err = gen.Generate(exists); err != nil {
			return nil, err
		}
	}

	inv := &domain.Invitation{Code: code, CircleID: circleID, IssuedBy: issuer}
	if err := tx.Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// ValidateAndReserve locks the unused invitation with code in circle.
// It does not mark it used; Redeem does that inside the same transaction.
func ValidateAndReserve(tx *gorm.DB, circleID uuid.UUID, code string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("circle_id = ? AND code = ? AND used = ?", circleID, code, false).
		First(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrInvalidInvitation
		}
		return nil, err
	}
	return &inv, nil
}

// Redeem marks inv used by user. The update is guarded on used = false, so a
// code can be consumed once no matter how many transactions race for it.
func Redeem(tx *gorm.DB, inv *domain.Invitation, user uuid.UUID, now time.Time) error {
	res := tx.Model(&domain.Invitation{}).
		Where("invitation_id = ? AND used = ?", inv.InvitationID, false).
		Updates(map[string]interface{}{"used": true, "used_by": user, "used_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return domain.ErrInvalidInvitation
	}
	inv.Used = true
	inv.UsedBy = &user
	inv.UsedAt = &now
	return nil
}

// OutstandingFor returns the unused codes issuer holds in circle, oldest first.
func OutstandingFor(tx *gorm.DB, circleID, issuer uuid.UUID) ([]domain.Invitation, error) {
	var out []domain.Invitation
	err := tx.Where("circle_id = ? AND issued_by = ? AND used = ?", circleID, issuer, false).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// UsedFor returns the memberships in circle that issuer invited, including
// deactivated ones so the breakdown keeps its history.
func UsedFor(tx *gorm.DB, circleID, issuer uuid.UUID) ([]domain.Membership, error) {
	var out []domain.Membership
	err := tx.Preload("User").
		Where("circle_id = ? AND invited_by = ?", circleID, issuer).
		Order("joined_at ASC").
		Find(&out).Error
	return out, err
}

// Reconcile tops up m's outstanding codes to its remaining quota and returns
// the full outstanding list. It never revokes codes.
// m must already be locked by the caller.
func Reconcile(tx *gorm.DB, gen *codes.Generator, m *domain.Membership) (issued int, outstanding []domain.Invitation, err error) {
	outstanding, err = OutstandingFor(tx, m.CircleID, m.UserID)
	if err != nil {
		return 0, nil, err
	}
	deficit := m.RemainingInvitations - len(outstanding)
	for i := 0; i < deficit; i++ {
		inv, err := IssueOrReuse(tx, gen, m.CircleID, m.UserID, "")
		if err != nil {
			return 0, nil, err
		}
		outstanding = append(outstanding, *inv)
		issued++
	}
	return issued, outstanding, nil
}
