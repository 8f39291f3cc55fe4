package memberships

import (
	"context"
	"errors"
	"time"

	"ride-backend/internal/application/events"
	"ride-backend/internal/application/policies"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// JoinViaInvitation redeems code for user and creates their membership.
// Redemption, membership creation and the issuer's quota update commit together.
func (s *Service) JoinViaInvitation(ctx context.Context, slug string, userID uuid.UUID, code string) (*domain.Membership, error) {
	var out *domain.Membership
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		circle, err := lockCircle(tx, slug)
		if err != nil {
			return err
		}
		flow := &joinFlow{tx: tx, circle: circle, userID: userID, code: code, now: s.now()}
		out, err = flow.run()
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("circle", slug).Str("user_id", userID.String()).Msg("memberships: member joined")
	return out, nil
}

// Leave deactivates username's membership. Admins may remove anyone;
// members may only remove themselves.
func (s *Service) Leave(ctx context.Context, slug string, actor uuid.UUID, username string) error {
	return database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		circle, err := lockCircle(tx, slug)
		if err != nil {
			return err
		}
		target, err := findUser(tx, username)
		if err != nil {
			return err
		}
		actorMembership, err := optional(LockActive(tx, circle.CircleID, actor))
		if err != nil {
			return err
		}
		targetMembership := actorMembership
		if target.UserID != actor {
			if targetMembership, err = LockActive(tx, circle.CircleID, target.UserID); err != nil {
				if errors.Is(err, domain.ErrMembershipNotFound) && actorMembership == nil {
					return domain.ErrNotAuthorized
				}
				return err
			}
		}
		if !policies.CanLeave(actor, policies.CircleAccess{Circle: circle, Actor: actorMembership, Target: targetMembership}) {
			return domain.ErrNotAuthorized
		}
		if err := Deactivate(tx, targetMembership); err != nil {
			return err
		}
		return events.Record(tx, circle.CircleID, domain.EventMemberLeft, &actor, map[string]interface{}{
			"user_id": target.UserID.String(),
		})
	})
}

// List returns the circle's active members. Only active members may look.
func (s *Service) List(ctx context.Context, slug string, actor uuid.UUID) ([]domain.Membership, error) {
	db := s.DB.WithContext(ctx)
	circle, actorMembership, err := s.access(db, slug, actor)
	if err != nil {
		return nil, err
	}
	if !policies.CanViewMembers(actor, policies.CircleAccess{Circle: circle, Actor: actorMembership}) {
		return nil, domain.ErrNotAMember
	}
	var out []domain.Membership
	err = db.Preload("User").
		Where("circle_id = ? AND is_active = ?", circle.CircleID, true).
		Order("joined_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, database.Classify(ctx, err)
	}
	return out, nil
}

// Get returns username's active membership in the circle.
func (s *Service) Get(ctx context.Context, slug string, actor uuid.UUID, username string) (*domain.Membership, error) {
	db := s.DB.WithContext(ctx)
	circle, actorMembership, err := s.access(db, slug, actor)
	if err != nil {
		return nil, err
	}
	if !policies.CanViewMembers(actor, policies.CircleAccess{Circle: circle, Actor: actorMembership}) {
		return nil, domain.ErrNotAMember
	}
	user, err := findUser(db, username)
	if err != nil {
		return nil, err
	}
	m, err := FindActive(db, circle.CircleID, user.UserID)
	if err != nil {
		return nil, err
	}
	m.User = user
	return m, nil
}

func (s *Service) access(db *gorm.DB, slug string, actor uuid.UUID) (*domain.Circle, *domain.Membership, error) {
	var circle domain.Circle
	if err := db.Where("slug_name = ?", slug).First(&circle).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, domain.ErrCircleNotFound
		}
		return nil, nil, database.Classify(db.Statement.Context, err)
	}
	m, err := optional(FindActive(db, circle.CircleID, actor))
	if err != nil {
		return nil, nil, err
	}
	return &circle, m, nil
}

func findUser(tx *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// optional turns ErrMembershipNotFound into a nil membership.
func optional(m *domain.Membership, err error) (*domain.Membership, error) {
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, nil
	}
	return m, err
}
