package memberships

import (
	"time"

	"ride-backend/internal/application/events"
	"ride-backend/internal/application/invitations"
	"ride-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JoinState is a step of the join-by-invitation flow.
type JoinState string

const (
	JoinRequested           JoinState = "requested"
	JoinInvitationValidated JoinState = "invitation_validated"
	JoinCapacityChecked     JoinState = "capacity_checked"
	JoinCommitted           JoinState = "committed"
	JoinRejected            JoinState = "rejected"
)

// joinFlow walks one join request through its states inside a transaction.
// Nothing is written before the commit step, and the commit step is a single
// unit with the rest of the transaction.
type joinFlow struct {
	tx     *gorm.DB
	circle *domain.Circle
	userID uuid.UUID
	code   string
	now    time.Time

	state      JoinState
	invitation *domain.Invitation
	membership *domain.Membership
}

func (f *joinFlow) run() (*domain.Membership, error) {
	f.state = JoinRequested
	steps := []func() error{f.validateInvitation, f.checkCapacity, f.commit}
	for _, step := range steps {
		if err := step(); err != nil {
			log.Info().Str("circle", f.circle.SlugName).Str("user_id", f.userID.String()).
				Str("state", string(f.state)).Err(err).Msg("memberships: join rejected")
			f.state = JoinRejected
			return nil, err
		}
	}
	return f.membership, nil
}

// Requested -> InvitationValidated. Plain read: the invitation row is locked
// later, after the issuer's membership, to keep the lock order.
func (f *joinFlow) validateInvitation() error {
	var inv domain.Invitation
	err := f.tx.Where("circle_id = ? AND code = ? AND used = ?", f.circle.CircleID, f.code, false).First(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrInvalidInvitation
		}
		return err
	}
	f.invitation = &inv
	f.state = JoinInvitationValidated
	return nil
}

// InvitationValidated -> CapacityChecked.
func (f *joinFlow) checkCapacity() error {
	active, err := isActiveMember(f.tx, f.circle.CircleID, f.userID)
	if err != nil {
		return err
	}
	if active {
		return domain.ErrAlreadyMember
	}
	ok, err := CanAdmit(f.tx, f.circle)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCircleFull
	}
	f.state = JoinCapacityChecked
	return nil
}

// CapacityChecked -> Committed: credit issuer, redeem code, create membership.
func (f *joinFlow) commit() error {
	issuer := f.invitation.IssuedBy
	if err := creditIssuer(f.tx, f.circle.CircleID, issuer); err != nil {
		return err
	}
	inv, err := invitations.ValidateAndReserve(f.tx, f.circle.CircleID, f.code)
	if err != nil {
		return err
	}
	if err := invitations.Redeem(f.tx, inv, f.userID, f.now); err != nil {
		return err
	}
	m, err := Create(f.tx, CreateInput{
		UserID:    f.userID,
		CircleID:  f.circle.CircleID,
		InvitedBy: &issuer,
	})
	if err != nil {
		if err == domain.ErrDuplicateMembership {
			return domain.ErrAlreadyMember
		}
		return err
	}
	if err := events.Record(f.tx, f.circle.CircleID, domain.EventMemberJoined, &f.userID, map[string]interface{}{
		"invited_by": issuer.String(),
		"code":       inv.Code,
	}); err != nil {
		return err
	}
	f.invitation = inv
	f.membership = m
	f.state = JoinCommitted
	return nil
}

// lockCircle takes the circle row lock every membership write starts with.
func lockCircle(tx *gorm.DB, slug string) (*domain.Circle, error) {
	var circle domain.Circle
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("slug_name = ?", slug).First(&circle).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCircleNotFound
		}
		return nil, err
	}
	return &circle, nil
}
