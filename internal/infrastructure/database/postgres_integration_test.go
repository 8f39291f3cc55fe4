//go:build integration

package database_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ride-backend/internal/application/codes"
	"ride-backend/internal/application/invitations"
	"ride-backend/internal/application/memberships"
	"ride-backend/internal/application/rides"
	"ride-backend/internal/domain"
	"ride-backend/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "rides_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.Open(fmt.Sprintf("postgres://test:test@%s:%s/rides_test?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Email: username + "@example.com", Username: username, FirstName: "Test", LastName: username, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&domain.Profile{UserID: u.UserID, Reputation: domain.DefaultReputation}).Error)
	return u
}

func TestPostgres_LastSlotRace(t *testing.T) {
	db := setupPostgres(t)
	admin := seedUser(t, db, "admin")
	bob := seedUser(t, db, "bob")
	cid := seedUser(t, db, "cid")

	circle := &domain.Circle{Name: "Limited", SlugName: "limited", IsPublic: true, IsLimited: true, MembersLimit: 2}
	require.NoError(t, db.Create(circle).Error)
	_, err := memberships.Create(db, memberships.CreateInput{UserID: admin.UserID, CircleID: circle.CircleID, IsAdmin: true, RemainingInvitations: 10})
	require.NoError(t, err)

	gen := &codes.Generator{}
	invB, err := invitations.IssueOrReuse(db, gen, circle.CircleID, admin.UserID, "")
	require.NoError(t, err)
	invC, err := invitations.IssueOrReuse(db, gen, circle.CircleID, admin.UserID, "")
	require.NoError(t, err)

	svc := &memberships.Service{DB: db}
	var wg sync.WaitGroup
	var errB, errC error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errB = svc.JoinViaInvitation(context.Background(), "limited", bob.UserID, invB.Code)
	}()
	go func() {
		defer wg.Done()
		_, errC = svc.JoinViaInvitation(context.Background(), "limited", cid.UserID, invC.Code)
	}()
	wg.Wait()

	if errB == nil {
		assert.ErrorIs(t, errC, domain.ErrCircleFull)
	} else {
		assert.ErrorIs(t, errB, domain.ErrCircleFull)
		assert.NoError(t, errC)
	}
	n, err := memberships.ActiveCount(db, circle.CircleID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostgres_LastSeatRace(t *testing.T) {
	db := setupPostgres(t)
	circle := &domain.Circle{Name: "College", SlugName: "college", IsPublic: true}
	require.NoError(t, db.Create(circle).Error)

	join := func(username string) *domain.User {
		u := seedUser(t, db, username)
		_, err := memberships.Create(db, memberships.CreateInput{UserID: u.UserID, CircleID: circle.CircleID})
		require.NoError(t, err)
		return u
	}
	driver := join("driver")
	riders := []*domain.User{join("ana"), join("bob")}

	now := time.Now().UTC()
	svc := &rides.Service{DB: db}
	ride, err := svc.CreateRide(context.Background(), "college", driver.UserID, rides.CreateRideInput{
		AvailableSeats:    1,
		DepartureLocation: "Downtown",
		DepartureDate:     now.Add(time.Hour),
		ArrivalLocation:   "Campus",
		ArrivalDate:       now.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(riders))
	for i, r := range riders {
		wg.Add(1)
		go func(i int, r *domain.User) {
			defer wg.Done()
			_, errs[i] = svc.JoinRide(context.Background(), "college", ride.RideID, r.UserID)
		}(i, r)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRideFull)
	}
	assert.Equal(t, 1, winners)

	var stored domain.Ride
	require.NoError(t, db.Where("ride_id = ?", ride.RideID).First(&stored).Error)
	assert.Equal(t, 0, stored.AvailableSeats)
}
