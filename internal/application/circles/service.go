package circles

import (
	"context"
	"fmt"
	"strings"

	"ride-backend/internal/application/events"
	"ride-backend/internal/application/memberships"
	"ride-backend/internal/application/policies"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"
	"ride-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultInvitations is the quota the creator's membership starts with.
const DefaultInvitations = 10

// Service encapsulates circle operations.
type Service struct {
	DB                 *gorm.DB
	DefaultInvitations int
}

type CreateCircleInput struct {
	Name         string `json:"name" validate:"required,max=140"`
	SlugName     string `json:"slug_name" validate:"required,max=40,handle"`
	About        string `json:"about" validate:"max=255"`
	IsPublic     *bool  `json:"is_public"`
	IsLimited    bool   `json:"is_limited"`
	MembersLimit *int   `json:"members_limit" validate:"omitempty,min=1,max=32000"`
}

type UpdateCircleInput struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=140"`
	About        *string `json:"about" validate:"omitempty,max=255"`
	Picture      *string `json:"picture"`
	IsPublic     *bool   `json:"is_public"`
	IsLimited    *bool   `json:"is_limited"`
	MembersLimit *int    `json:"members_limit" validate:"omitempty,min=1,max=32000"`
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}

func validateLimit(isLimited bool, limit *int) error {
	if isLimited != (limit != nil) {
		return invalid("If circle is limited, a members limit must be provided")
	}
	if limit != nil && (*limit < 1 || *limit > domain.MaxMembersLimit) {
		return invalid(fmt.Sprintf("members_limit must be between 1 and %d", domain.MaxMembersLimit))
	}
	return nil
}

func (in *CreateCircleInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.SlugName = strings.TrimSpace(in.SlugName)
	if err := validation.Struct(in); err != nil {
		return err
	}
	return validateLimit(in.IsLimited, in.MembersLimit)
}

// CreateCircle creates the circle and makes the creator its first admin,
// seeded with the default invitation quota.
func (s *Service) CreateCircle(ctx context.Context, in CreateCircleInput, creator uuid.UUID) (*domain.Circle, *domain.Membership, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	circle := &domain.Circle{
		Name:      in.Name,
		SlugName:  in.SlugName,
		About:     in.About,
		IsPublic:  true,
		IsLimited: in.IsLimited,
	}
	if in.IsPublic != nil {
		circle.IsPublic = *in.IsPublic
	}
	if in.MembersLimit != nil {
		circle.MembersLimit = *in.MembersLimit
	}
	quota := s.DefaultInvitations
	if quota <= 0 {
		quota = DefaultInvitations
	}

	var admin *domain.Membership
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Circle{}).Where("slug_name = ?", circle.SlugName).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrDuplicateSlug
		}
		if err := tx.Create(circle).Error; err != nil {
			if database.IsDuplicate(err) {
				return domain.ErrDuplicateSlug
			}
			return err
		}
		var err error
		admin, err = memberships.Create(tx, memberships.CreateInput{
			UserID:               creator,
			CircleID:             circle.CircleID,
			IsAdmin:              true,
			RemainingInvitations: quota,
		})
		if err != nil {
			return err
		}
		return events.Record(tx, circle.CircleID, domain.EventCircleCreated, &creator, map[string]interface{}{
			"slug_name": circle.SlugName,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("circle", circle.SlugName).Str("creator", creator.String()).Msg("circles: circle created")
	return circle, admin, nil
}

// List returns circles ordered by activity. publicOnly hides private circles.
func (s *Service) List(ctx context.Context, publicOnly bool) ([]domain.Circle, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Circle{})
	if publicOnly {
		q = q.Where("is_public = ?", true)
	}
	var out []domain.Circle
	if err := q.Order("rides_taken DESC, rides_offered DESC, name ASC").Find(&out).Error; err != nil {
		return nil, database.Classify(ctx, err)
	}
	return out, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Circle, error) {
	var c domain.Circle
	if err := s.DB.WithContext(ctx).Where("slug_name = ?", slug).First(&c).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCircleNotFound
		}
		return nil, database.Classify(ctx, err)
	}
	return &c, nil
}

// Update applies an admin's edits. A members limit below the current number
// of active members is rejected.
func (s *Service) Update(ctx context.Context, slug string, actor uuid.UUID, in UpdateCircleInput) (*domain.Circle, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	var out domain.Circle
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("slug_name = ?", slug).First(&out).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrCircleNotFound
			}
			return err
		}
		actorMembership, err := memberships.FindActive(tx, out.CircleID, actor)
		if err != nil && err != domain.ErrMembershipNotFound {
			return err
		}
		if !policies.CanAdministerCircle(actor, policies.CircleAccess{Circle: &out, Actor: actorMembership}) {
			return domain.ErrNotAuthorized
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.About != nil {
			updates["about"] = *in.About
		}
		if in.Picture != nil {
			updates["picture"] = *in.Picture
		}
		if in.IsPublic != nil {
			updates["is_public"] = *in.IsPublic
		}
		if in.IsLimited != nil || in.MembersLimit != nil {
			isLimited := out.IsLimited
			if in.IsLimited != nil {
				isLimited = *in.IsLimited
			}
			limit := in.MembersLimit
			if limit == nil && isLimited && out.IsLimited {
				limit = &out.MembersLimit
			}
			if !isLimited {
				limit = nil
			}
			if err := validateLimit(isLimited, limit); err != nil {
				return err
			}
			if limit != nil {
				active, err := memberships.ActiveCount(tx, out.CircleID)
				if err != nil {
					return err
				}
				if int64(*limit) < active {
					return invalid(fmt.Sprintf("members_limit cannot be lower than the %d active members", active))
				}
				updates["members_limit"] = *limit
			} else {
				updates["members_limit"] = 0
			}
			updates["is_limited"] = isLimited
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&out).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", out.CircleID).First(&out).Error; err != nil {
			return err
		}
		return events.Record(tx, out.CircleID, domain.EventCircleUpdated, &actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
