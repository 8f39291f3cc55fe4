package invitations

import (
	"context"

	"ride-backend/internal/application/codes"
	"ride-backend/internal/application/events"
	"ride-backend/internal/application/policies"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB    *gorm.DB
	Codes *codes.Generator
}

// Breakdown is a member's invitation status in one circle.
type Breakdown struct {
	Outstanding []string            `json:"invitations"`
	Used        []domain.Membership `json:"used_invitations"`
}

// RequestInvitations reconciles the member's outstanding codes against their
// remaining quota and reports outstanding codes plus who joined through them.
// Only the member themselves may ask.
func (s *Service) RequestInvitations(ctx context.Context, slug string, actor uuid.UUID, username string) (*Breakdown, error) {
	var out Breakdown
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		var circle domain.Circle
		if err := tx.Where("slug_name = ?", slug).First(&circle).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrCircleNotFound
			}
			return err
		}

		var target domain.User
		if err := tx.Where("username = ?", username).First(&target).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrNotAMember
			}
			return err
		}

		var member domain.Membership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("circle_id = ? AND user_id = ? AND is_active = ?", circle.CircleID, target.UserID, true).
			First(&member).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrNotAMember
			}
			return err
		}

		access := policies.CircleAccess{Circle: &circle, Target: &member}
		if member.UserID == actor {
			access.Actor = &member
		}
		if !policies.CanRequestInvitations(actor, access) {
			return domain.ErrNotAuthorized
		}

		issued, outstanding, err := Reconcile(tx, s.codes(), &member)
		if err != nil {
			return err
		}
		if issued > 0 {
			if err := events.Record(tx, circle.CircleID, domain.EventInvitationsIssued, &actor, map[string]interface{}{
				"count": issued,
			}); err != nil {
				return err
			}
			log.Info().Str("circle", circle.SlugName).Str("user_id", actor.String()).Int("issued", issued).Msg("invitations: codes issued")
		}

		used, err := UsedFor(tx, circle.CircleID, member.UserID)
		if err != nil {
			return err
		}

		out.Outstanding = make([]string, 0, len(outstanding))
		for _, inv := range outstanding {
			out.Outstanding = append(out.Outstanding, inv.Code)
		}
		if used == nil {
			used = []domain.Membership{}
		}
		out.Used = used
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) codes() *codes.Generator {
	if s.Codes == nil {
		return &codes.Generator{}
	}
	return s.Codes
}
