package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"ride-backend/internal/application/emails"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"
	"ride-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Service holds user signup, verification and profile reads.
type Service struct {
	DB      *gorm.DB
	Secret  []byte
	Mailer  emails.Sender
	BaseURL string
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type SignupInput struct {
	Email                string  `json:"email" validate:"required,email,max=254"`
	Username             string  `json:"username" validate:"required,handle,max=40"`
	Password             string  `json:"password" validate:"required,password"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"required"`
	FirstName            string  `json:"first_name" validate:"required,personname,max=30"`
	LastName             string  `json:"last_name" validate:"required,personname,max=30"`
	PhoneNumber          *string `json:"phone_number" validate:"omitempty,e164"`
}

// Profile is the user together with their public stats.
type Profile struct {
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

// Signup creates an unverified user with its profile and mails a
// verification link. The email goes out after commit and never fails signup.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Password != in.PasswordConfirmation {
		return nil, fmt.Errorf("%w: Passwords don't match", domain.ErrInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        email,
		Username:     username,
		FirstName:    titleCase(in.FirstName),
		LastName:     titleCase(in.LastName),
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		IsClient:     true,
	}
	err = database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		if taken, err := exists(tx, "email = ?", email); err != nil {
			return err
		} else if taken {
			return domain.ErrEmailTaken
		}
		if taken, err := exists(tx, "username = ?", username); err != nil {
			return err
		} else if taken {
			return domain.ErrUsernameTaken
		}
		if err := tx.Create(u).Error; err != nil {
			if database.IsDuplicate(err) {
				if strings.Contains(strings.ToLower(err.Error()), "email") {
					return domain.ErrEmailTaken
				}
				return domain.ErrUsernameTaken
			}
			return err
		}
		profile := &domain.Profile{UserID: u.UserID, Reputation: domain.DefaultReputation}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		u.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.UserID.String()).Msg("users: signed up")
	s.sendVerification(u)
	return u, nil
}

func (s *Service) sendVerification(u *domain.User) {
	if s.Mailer == nil {
		return
	}
	token, err := SignVerificationToken(s.Secret, u.UserID, s.now())
	if err != nil {
		log.Error().Err(err).Str("user_id", u.UserID.String()).Msg("users: sign verification token")
		return
	}
	link := strings.TrimRight(s.BaseURL, "/") + "/verify?token=" + url.QueryEscape(token)
	to, name := u.Email, u.FirstName
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := s.Mailer.SendVerification(ctx, to, name, link); err != nil {
			log.Warn().Err(err).Str("email", to).Msg("users: verification email failed")
		}
	}()
}

// Verify marks the token's user as verified. Verifying twice is harmless.
func (s *Service) Verify(ctx context.Context, token string) error {
	userID, err := ParseVerificationToken(s.Secret, token, s.now())
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Update("is_verified", true)
	if res.Error != nil {
		return database.Classify(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

// GetProfile returns the user and their ride stats.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Preload("Profile").Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, database.Classify(ctx, err)
	}
	profile := u.Profile
	u.Profile = nil
	return &Profile{User: &u, Profile: profile}, nil
}

func exists(tx *gorm.DB, query string, arg interface{}) (bool, error) {
	var n int64
	if err := tx.Model(&domain.User{}).Where(query, arg).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func titleCase(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		r := []rune(f)
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}
