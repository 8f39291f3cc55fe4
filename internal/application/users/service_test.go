package users

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type mail struct {
	to, name, link string
}

type fakeMailer struct {
	sent chan mail
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, to, name, link string) error {
	f.sent <- mail{to: to, name: name, link: link}
	return f.err
}

var secret = []byte("test-secret")

func setup(t *testing.T) (*Service, *fakeMailer, *gorm.DB) {
	t.Helper()
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mailer := &fakeMailer{sent: make(chan mail, 4)}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &Service{DB: db, Secret: secret, Mailer: mailer, BaseURL: "https://rides.example.com/", Now: func() time.Time { return now }}
	return svc, mailer, db
}

func validInput() SignupInput {
	return SignupInput{
		Email:                "Ana@Example.com",
		Username:             "ana",
		Password:             "s3cret!pass",
		PasswordConfirmation: "s3cret!pass",
		FirstName:            "ana",
		LastName:             "de la cruz",
	}
}

func waitMail(t *testing.T, m *fakeMailer) mail {
	t.Helper()
	select {
	case got := <-m.sent:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("verification email was not sent")
		return mail{}
	}
}

func TestSignup_CreatesUserAndProfile(t *testing.T) {
	svc, mailer, db := setup(t)

	u, err := svc.Signup(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana", u.FirstName)
	assert.Equal(t, "De La Cruz", u.LastName)
	assert.False(t, u.IsVerified)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!pass")))

	var p domain.Profile
	require.NoError(t, db.Where("user_id = ?", u.UserID).First(&p).Error)
	assert.Equal(t, domain.DefaultReputation, p.Reputation)
	assert.Zero(t, p.RidesTaken)
	assert.Zero(t, p.RidesOffered)

	got := waitMail(t, mailer)
	assert.Equal(t, "ana@example.com", got.to)
	assert.Equal(t, "Ana", got.name)
	assert.True(t, strings.HasPrefix(got.link, "https://rides.example.com/verify?token="))
}

func TestSignup_MailFailureDoesNotFailSignup(t *testing.T) {
	svc, mailer, _ := setup(t)
	mailer.err = errors.New("smtp down")

	_, err := svc.Signup(context.Background(), validInput())
	require.NoError(t, err)
	waitMail(t, mailer)
}

func TestSignup_Rejections(t *testing.T) {
	svc, _, db := setup(t)
	_, err := svc.Signup(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Username = "other"
	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	in = validInput()
	in.Email = "other@example.com"
	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	in = validInput()
	in.Email, in.Username = "b@example.com", "b"
	in.PasswordConfirmation = "different!1"
	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in.PasswordConfirmation = "short1!"
	in.Password = "short1!"
	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var n int64
	require.NoError(t, db.Model(&domain.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestVerify(t *testing.T) {
	svc, mailer, db := setup(t)
	u, err := svc.Signup(context.Background(), validInput())
	require.NoError(t, err)

	link, err := url.Parse(waitMail(t, mailer).link)
	require.NoError(t, err)
	token := link.Query().Get("token")

	require.NoError(t, svc.Verify(context.Background(), token))
	var got domain.User
	require.NoError(t, db.Where("user_id = ?", u.UserID).First(&got).Error)
	assert.True(t, got.IsVerified)

	assert.ErrorIs(t, svc.Verify(context.Background(), "garbage"), domain.ErrInvalidToken)
}

func TestParseVerificationToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	tok, err := SignVerificationToken(secret, id, now)
	require.NoError(t, err)

	got, err := ParseVerificationToken(secret, tok, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseVerificationToken(secret, tok, now.Add(4*24*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = ParseVerificationToken([]byte("other"), tok, now)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := setup(t)
	svc.Mailer = nil
	u, err := svc.Signup(context.Background(), validInput())
	require.NoError(t, err)

	p, err := svc.GetProfile(context.Background(), u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ana", p.User.Username)
	require.NotNil(t, p.Profile)
	assert.Equal(t, domain.DefaultReputation, p.Profile.Reputation)

	_, err = svc.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
