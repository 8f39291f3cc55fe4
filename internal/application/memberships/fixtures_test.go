package memberships

import (
	"testing"

	"ride-backend/internal/application/codes"
	"ride-backend/internal/application/invitations"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

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

// seedCircle creates a circle with admin as its first member holding quota invitations.
func seedCircle(t *testing.T, db *gorm.DB, slug string, admin *domain.User, limit int, quota int) (*domain.Circle, *domain.Membership) {
	t.Helper()
	c := &domain.Circle{Name: slug, SlugName: slug, IsPublic: true, IsLimited: limit > 0, MembersLimit: limit}
	require.NoError(t, db.Create(c).Error)
	m, err := Create(db, CreateInput{UserID: admin.UserID, CircleID: c.CircleID, IsAdmin: true, RemainingInvitations: quota})
	require.NoError(t, err)
	return c, m
}

func issue(t *testing.T, db *gorm.DB, circle *domain.Circle, issuer *domain.User) string {
	t.Helper()
	inv, err := invitations.IssueOrReuse(db, &codes.Generator{}, circle.CircleID, issuer.UserID, "")
	require.NoError(t, err)
	return inv.Code
}

func reload(t *testing.T, db *gorm.DB, m *domain.Membership) *domain.Membership {
	t.Helper()
	var out domain.Membership
	require.NoError(t, db.Where("membership_id = ?", m.MembershipID).First(&out).Error)
	return &out
}
