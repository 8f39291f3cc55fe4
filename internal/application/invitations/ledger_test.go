package invitations

import (
	"context"
	"testing"
	"time"

	"ride-backend/internal/application/codes"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Email: username + "@example.com", Username: username, FirstName: "Test", LastName: username, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCircle(t *testing.T, db *gorm.DB, slug string) *domain.Circle {
	t.Helper()
	c := &domain.Circle{Name: slug, SlugName: slug, IsPublic: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedMembership(t *testing.T, db *gorm.DB, circle *domain.Circle, user *domain.User, remaining int) *domain.Membership {
	t.Helper()
	m := &domain.Membership{UserID: user.UserID, CircleID: circle.CircleID, IsActive: true, IsAdmin: true, RemainingInvitations: remaining}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestIssueOrReuse_GeneratesCode(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")
	issuer := uuid.New()

	inv, err := IssueOrReuse(db, &codes.Generator{}, circle.CircleID, issuer, "")
	require.NoError(t, err)
	assert.Len(t, inv.Code, codes.DefaultLength)
	assert.False(t, inv.Used)
	assert.Nil(t, inv.UsedBy)
	assert.Nil(t, inv.UsedAt)
	assert.Equal(t, issuer, inv.IssuedBy)
}

func TestIssueOrReuse_UsesFreeHint(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")

	inv, err := IssueOrReuse(db, &codes.Generator{}, circle.CircleID, uuid.New(), "holamundo")
	require.NoError(t, err)
	assert.Equal(t, "holamundo", inv.Code)
}

func TestIssueOrReuse_RegeneratesCollidingHint(t *testing.T) {
	db := setupDB(t)
	first := seedCircle(t, db, "college")
	second := seedCircle(t, db, "work")

	_, err := IssueOrReuse(db, &codes.Generator{}, first.CircleID, uuid.New(), "holamundo")
	require.NoError(t, err)

	// Codes are unique across circles, not just per circle.
	inv, err := IssueOrReuse(db, &codes.Generator{}, second.CircleID, uuid.New(), "holamundo")
	require.NoError(t, err)
	assert.NotEqual(t, "holamundo", inv.Code)
	assert.Len(t, inv.Code, codes.DefaultLength)
}

func TestIssueOrReuse_CodeSpaceExhausted(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")

	// Length-1 codes over a source that always yields 'A'.
	gen := &codes.Generator{Length: 1, MaxAttempts: 3, Source: zeroReader{}}
	_, err := IssueOrReuse(db, gen, circle.CircleID, uuid.New(), "")
	require.NoError(t, err)

	_, err = IssueOrReuse(db, gen, circle.CircleID, uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestValidateAndReserve(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")
	other := seedCircle(t, db, "work")
	inv, err := IssueOrReuse(db, &codes.Generator{}, circle.CircleID, uuid.New(), "")
	require.NoError(t, err)

	got, err := ValidateAndReserve(db, circle.CircleID, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, inv.InvitationID, got.InvitationID)
	assert.False(t, got.Used)

	_, err = ValidateAndReserve(db, other.CircleID, inv.Code)
	assert.ErrorIs(t, err, domain.ErrInvalidInvitation)

	_, err = ValidateAndReserve(db, circle.CircleID, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInvitation)
}

func TestRedeem_OnlyOnce(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")
	inv, err := IssueOrReuse(db, &codes.Generator{}, circle.CircleID, uuid.New(), "")
	require.NoError(t, err)

	now := time.Now().UTC()
	first := *inv
	second := *inv
	user := uuid.New()
	require.NoError(t, Redeem(db, &first, user, now))
	assert.True(t, first.Used)
	require.NotNil(t, first.UsedBy)
	assert.Equal(t, user, *first.UsedBy)
	require.NotNil(t, first.UsedAt)

	err = Redeem(db, &second, uuid.New(), now)
	assert.ErrorIs(t, err, domain.ErrInvalidInvitation)

	var stored domain.Invitation
	require.NoError(t, db.Where("invitation_id = ?", inv.InvitationID).First(&stored).Error)
	assert.True(t, stored.Used)
	require.NotNil(t, stored.UsedBy)
	assert.Equal(t, user, *stored.UsedBy)
	assert.NotNil(t, stored.UsedAt)
}

func TestReconcile_FillsDeficitOnce(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")
	m := seedMembership(t, db, circle, seedUser(t, db, "ana"), 10)

	issued, outstanding, err := Reconcile(db, &codes.Generator{}, m)
	require.NoError(t, err)
	assert.Equal(t, 10, issued)
	assert.Len(t, outstanding, 10)

	issued, outstanding, err = Reconcile(db, &codes.Generator{}, m)
	require.NoError(t, err)
	assert.Equal(t, 0, issued)
	assert.Len(t, outstanding, 10)

	// A quota below the outstanding count revokes nothing.
	m.RemainingInvitations = 3
	issued, outstanding, err = Reconcile(db, &codes.Generator{}, m)
	require.NoError(t, err)
	assert.Equal(t, 0, issued)
	assert.Len(t, outstanding, 10)
}

func TestCodesAreUnique(t *testing.T) {
	db := setupDB(t)
	gen := &codes.Generator{}
	for i := 0; i < 5; i++ {
		circle := seedCircle(t, db, "circle-"+string(rune('a'+i)))
		m := seedMembership(t, db, circle, seedUser(t, db, "user"+string(rune('a'+i))), 20)
		_, _, err := Reconcile(db, gen, m)
		require.NoError(t, err)
	}

	var total, distinct int64
	require.NoError(t, db.Model(&domain.Invitation{}).Count(&total).Error)
	require.NoError(t, db.Model(&domain.Invitation{}).Distinct("code").Count(&distinct).Error)
	assert.Equal(t, int64(100), total)
	assert.Equal(t, total, distinct)
}

func TestUsedFor_IncludesDeactivated(t *testing.T) {
	db := setupDB(t)
	circle := seedCircle(t, db, "college")
	ana := seedUser(t, db, "ana")
	bob := seedUser(t, db, "bob")
	cid := seedUser(t, db, "cid")
	seedMembership(t, db, circle, ana, 10)

	active := &domain.Membership{UserID: bob.UserID, CircleID: circle.CircleID, IsActive: true, InvitedBy: &ana.UserID}
	left := &domain.Membership{UserID: cid.UserID, CircleID: circle.CircleID, IsActive: true, InvitedBy: &ana.UserID}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(left).Error)
	require.NoError(t, db.Model(left).Update("is_active", false).Error)

	used, err := UsedFor(db, circle.CircleID, ana.UserID)
	require.NoError(t, err)
	require.Len(t, used, 2)
	names := []string{used[0].User.Username, used[1].User.Username}
	assert.ElementsMatch(t, []string{"bob", "cid"}, names)
}

func TestRequestInvitations(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	circle := seedCircle(t, db, "college")
	ana := seedUser(t, db, "ana")
	bob := seedUser(t, db, "bob")
	seedMembership(t, db, circle, ana, 10)

	out, err := svc.RequestInvitations(context.Background(), "college", ana.UserID, "ana")
	require.NoError(t, err)
	assert.Len(t, out.Outstanding, 10)
	assert.Empty(t, out.Used)

	again, err := svc.RequestInvitations(context.Background(), "college", ana.UserID, "ana")
	require.NoError(t, err)
	assert.ElementsMatch(t, out.Outstanding, again.Outstanding)

	var issuedEvents int64
	require.NoError(t, db.Model(&domain.CircleEvent{}).Where("event_type = ?", domain.EventInvitationsIssued).Count(&issuedEvents).Error)
	assert.Equal(t, int64(1), issuedEvents)

	_, err = svc.RequestInvitations(context.Background(), "college", bob.UserID, "bob")
	assert.ErrorIs(t, err, domain.ErrNotAMember)

	_, err = svc.RequestInvitations(context.Background(), "college", bob.UserID, "ana")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.RequestInvitations(context.Background(), "missing", ana.UserID, "ana")
	assert.ErrorIs(t, err, domain.ErrCircleNotFound)
}
