package rides

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// DefaultMinLeadTime is how far ahead of now a ride must depart.
const DefaultMinLeadTime = 15 * time.Minute

// Rollup columns shared by Circle, Membership and Profile.
const (
	ridesOffered = "rides_offered"
	ridesTaken   = "rides_taken"
)

// Service is the ride transaction engine.
type Service struct {
	DB          *gorm.DB
	MinLeadTime time.Duration
	Now         func() time.Time
}

type CreateRideInput struct {
	AvailableSeats    int       `json:"available_seats" validate:"min=1,max=15"`
	Comments          string    `json:"comments"`
	DepartureLocation string    `json:"departure_location" validate:"required,max=255"`
	DepartureDate     time.Time `json:"departure_date"`
	ArrivalLocation   string    `json:"arrival_location" validate:"required,max=255"`
	ArrivalDate       time.Time `json:"arrival_date"`
}

// UpdateRideInput is a partial edit; nil fields are left alone.
type UpdateRideInput struct {
	AvailableSeats    *int       `json:"available_seats" validate:"omitempty,min=0,max=15"`
	Comments          *string    `json:"comments"`
	DepartureLocation *string    `json:"departure_location" validate:"omitempty,min=1,max=255"`
	DepartureDate     *time.Time `json:"departure_date"`
	ArrivalLocation   *string    `json:"arrival_location" validate:"omitempty,min=1,max=255"`
	ArrivalDate       *time.Time `json:"arrival_date"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) minLead() time.Duration {
	if s.MinLeadTime <= 0 {
		return DefaultMinLeadTime
	}
	return s.MinLeadTime
}

func windowError(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRideWindow, reason)
}

func (s *Service) validateWindow(departure, arrival time.Time) error {
	if departure.Before(s.now().Add(s.minLead())) {
		return windowError(fmt.Sprintf("departure time must be at least %d minutes from now", int(s.minLead().Minutes())))
	}
	if !arrival.After(departure) {
		return windowError("arrival time must be after departure time")
	}
	return nil
}

// CreateRide stores a ride offered by offerer and bumps the rides_offered
// rollup of the circle, the offerer's membership and the offerer's profile.
func (s *Service) CreateRide(ctx context.Context, slug string, offerer uuid.UUID, in CreateRideInput) (*domain.Ride, error) {
	in.DepartureDate = in.DepartureDate.UTC()
	in.ArrivalDate = in.ArrivalDate.UTC()
	in.DepartureLocation = strings.TrimSpace(in.DepartureLocation)
	in.ArrivalLocation = strings.TrimSpace(in.ArrivalLocation)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if err := s.validateWindow(in.DepartureDate, in.ArrivalDate); err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		OfferedBy:         offerer,
		AvailableSeats:    in.AvailableSeats,
		TotalSeats:        in.AvailableSeats,
		Comments:          in.Comments,
		DepartureLocation: in.DepartureLocation,
		DepartureDate:     in.DepartureDate,
		ArrivalLocation:   in.ArrivalLocation,
		ArrivalDate:       in.ArrivalDate,
		IsActive:          true,
	}
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		circle, err := lockCircle(tx, slug)
		if err != nil {
			return err
		}
		membership, err := memberships.LockActive(tx, circle.CircleID, offerer)
		if err != nil {
			if err == domain.ErrMembershipNotFound {
				return domain.ErrNotAnActiveMember
			}
			return err
		}
		ride.OfferedIn = circle.CircleID
		if err := tx.Create(ride).Error; err != nil {
			return err
		}
		if err := bumpRollups(tx, ridesOffered, circle.CircleID, membership.MembershipID, offerer); err != nil {
			return err
		}
		return events.Record(tx, circle.CircleID, domain.EventRideOffered, &offerer, map[string]interface{}{
			"ride_id":        ride.RideID.String(),
			"seats":          ride.TotalSeats,
			"departure_date": ride.DepartureDate,
		})
	})
	if err != nil {
		return nil, err
	}
	ride.Passengers = []domain.RidePassenger{}
	log.Info().Str("circle", slug).Str("ride_id", ride.RideID.String()).Int("seats", ride.TotalSeats).Msg("rides: ride offered")
	return ride, nil
}

// JoinRide gives passenger one seat. The seat decrement is guarded on
// available_seats >= 1, so exactly one of several racing joiners gets the last seat.
func (s *Service) JoinRide(ctx context.Context, slug string, rideID, passenger uuid.UUID) (*domain.Ride, error) {
	now := s.now()
	var ride *domain.Ride
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		circle, err := lockCircle(tx, slug)
		if err != nil {
			return err
		}
		if ride, err = lockRide(tx, circle.CircleID, rideID); err != nil {
			return err
		}
		if !ride.IsActive {
			return domain.ErrRideInactive
		}
		if !now.Before(ride.DepartureDate) {
			return domain.ErrRideAlreadyStarted
		}
		membership, err := memberships.LockActive(tx, circle.CircleID, passenger)
		if err != nil {
			if err == domain.ErrMembershipNotFound {
				return domain.ErrNotAnActiveMember
			}
			return err
		}
		access := policies.RideAccess{Ride: ride, Actor: membership}
		if !policies.IsRideCircleMember(passenger, access) {
			return domain.ErrNotAnActiveMember
		}
		if !policies.CanTakeSeat(passenger, access) {
			return domain.ErrNotAuthorized
		}

		var onboard int64
		if err := tx.Model(&domain.RidePassenger{}).Where("ride_id = ? AND user_id = ?", ride.RideID, passenger).Count(&onboard).Error; err != nil {
			return err
		}
		if onboard > 0 {
			return domain.ErrAlreadyAPassenger
		}
		if ride.AvailableSeats < 1 {
			return domain.ErrRideFull
		}

		res := tx.Model(&domain.Ride{}).
			Where("ride_id = ? AND available_seats >= ?", ride.RideID, 1).
			Update("available_seats", gorm.Expr("available_seats - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return domain.ErrRideFull
		}
		if err := tx.Create(&domain.RidePassenger{RideID: ride.RideID, UserID: passenger, JoinedAt: now}).Error; err != nil {
			if database.IsDuplicate(err) {
				return domain.ErrAlreadyAPassenger
			}
			return err
		}
		if err := bumpRollups(tx, ridesTaken, circle.CircleID, membership.MembershipID, passenger); err != nil {
			return err
		}
		if err := events.Record(tx, circle.CircleID, domain.EventRideJoined, &passenger, map[string]interface{}{
			"ride_id": ride.RideID.String(),
		}); err != nil {
			return err
		}
		return reloadRide(tx, ride)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("ride_id", rideID.String()).Str("passenger", passenger.String()).Int("available_seats", ride.AvailableSeats).Msg("rides: passenger joined")
	return ride, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// UpdateRide applies the owner's edits while the ride has not departed.
func (s *Service) UpdateRide(ctx context.Context, slug string, rideID, actor uuid.UUID, in UpdateRideInput) (*domain.Ride, error) {
	in.DepartureLocation = trimmed(in.DepartureLocation)
	in.ArrivalLocation = trimmed(in.ArrivalLocation)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	now := s.now()
	var ride *domain.Ride
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		circle, err := findCircle(tx, slug)
		if err != nil {
			return err
		}
		if ride, err = lockRide(tx, circle.CircleID, rideID); err != nil {
			return err
		}
		if !policies.CanEditRide(actor, policies.RideAccess{Ride: ride}) {
			return domain.ErrNotAuthorized
		}
		if !now.Before(ride.DepartureDate) {
			return domain.ErrRideAlreadyStarted
		}
		if !ride.IsActive {
			return domain.ErrRideInactive
		}

		updates := map[string]interface{}{}
		departure, arrival := ride.DepartureDate, ride.ArrivalDate
		if in.DepartureDate != nil {
			departure = in.DepartureDate.UTC()
			updates["departure_date"] = departure
		}
		if in.ArrivalDate != nil {
			arrival = in.ArrivalDate.UTC()
			updates["arrival_date"] = arrival
		}
		if in.DepartureDate != nil {
			if err := s.validateWindow(departure, arrival); err != nil {
				return err
			}
		} else if in.ArrivalDate != nil && !arrival.After(departure) {
			return windowError("arrival time must be after departure time")
		}
		if in.DepartureLocation != nil {
			updates["departure_location"] = *in.DepartureLocation
		}
		if in.ArrivalLocation != nil {
			updates["arrival_location"] = *in.ArrivalLocation
		}
		if in.Comments != nil {
			updates["comments"] = *in.Comments
		}
		if in.AvailableSeats != nil {
			taken := ride.TotalSeats - ride.AvailableSeats
			total := taken + *in.AvailableSeats
			if total < 1 || total > domain.MaxRideSeats {
				return fmt.Errorf("%w: a ride holds between 1 and %d seats", domain.ErrInvalidInput, domain.MaxRideSeats)
			}
			updates["available_seats"] = *in.AvailableSeats
			updates["total_seats"] = total
		}
		if len(updates) == 0 {
			return reloadRide(tx, ride)
		}
		if err := tx.Model(&domain.Ride{}).Where("ride_id = ?", ride.RideID).Updates(updates).Error; err != nil {
			return err
		}
		if err := events.Record(tx, circle.CircleID, domain.EventRideUpdated, &actor, map[string]interface{}{
			"ride_id": ride.RideID.String(),
		}); err != nil {
			return err
		}
		return reloadRide(tx, ride)
	})
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// EndRide lets the owner finish a ride once it has departed.
func (s *Service) EndRide(ctx context.Context, slug string, rideID, actor uuid.UUID) (*domain.Ride, error) {
	now := s.now()
	var ride *domain.Ride
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		circle, err := findCircle(tx, slug)
		if err != nil {
			return err
		}
		if ride, err = lockRide(tx, circle.CircleID, rideID); err != nil {
			return err
		}
		if !policies.CanEndRide(actor, policies.RideAccess{Ride: ride}) {
			return domain.ErrNotAuthorized
		}
		if !ride.IsActive {
			return domain.ErrRideInactive
		}
		if !now.After(ride.DepartureDate) {
			return domain.ErrRideNotStarted
		}
		if err := tx.Model(&domain.Ride{}).Where("ride_id = ?", ride.RideID).Update("is_active", false).Error; err != nil {
			return err
		}
		if err := events.Record(tx, circle.CircleID, domain.EventRideFinished, &actor, map[string]interface{}{
			"ride_id": ride.RideID.String(),
		}); err != nil {
			return err
		}
		return reloadRide(tx, ride)
	})
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// FinishExpired deactivates every active ride whose arrival time is before now.
func (s *Service) FinishExpired(ctx context.Context) (int, error) {
	now := s.now()
	var finished int
	err := database.RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		var expired []domain.Ride
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("ride_id", "offered_in").
			Where("is_active = ? AND arrival_date < ?", true, now).
			Find(&expired).Error
		if err != nil || len(expired) == 0 {
			return err
		}
		ids := make([]uuid.UUID, 0, len(expired))
		for _, r := range expired {
			ids = append(ids, r.RideID)
		}
		if err := tx.Model(&domain.Ride{}).Where("ride_id IN ?", ids).Update("is_active", false).Error; err != nil {
			return err
		}
		for _, r := range expired {
			if err := events.Record(tx, r.OfferedIn, domain.EventRideFinished, nil, map[string]interface{}{
				"ride_id": r.RideID.String(),
				"reason":  "arrival_passed",
			}); err != nil {
				return err
			}
		}
		finished = len(expired)
		return nil
	})
	return finished, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns the circle's joinable rides: active, departing in the future,
// with at least one free seat. search matches either location.
func (s *Service) List(ctx context.Context, slug string, actor uuid.UUID, search string) ([]domain.Ride, error) {
	db := s.DB.WithContext(ctx)
	circle, err := findCircle(db, slug)
	if err != nil {
		return nil, database.Classify(ctx, err)
	}
	membership, err := memberships.FindActive(db, circle.CircleID, actor)
	if err != nil {
		if err == domain.ErrMembershipNotFound {
			return nil, domain.ErrNotAMember
		}
		return nil, database.Classify(ctx, err)
	}
	if !policies.CanViewMembers(actor, policies.CircleAccess{Circle: circle, Actor: membership}) {
		return nil, domain.ErrNotAMember
	}

	q := db.Preload("Passengers").
		Where("offered_in = ? AND is_active = ? AND available_seats >= ? AND departure_date > ?", circle.CircleID, true, 1, s.now())
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		q = q.Where(`LOWER(departure_location) LIKE ? ESCAPE '\' OR LOWER(arrival_location) LIKE ? ESCAPE '\'`, like, like)
	}
	var out []domain.Ride
	if err := q.Order("departure_date ASC").Find(&out).Error; err != nil {
		return nil, database.Classify(ctx, err)
	}
	return out, nil
}

// Get returns a ride in the circle with its passengers. Members only.
func (s *Service) Get(ctx context.Context, slug string, rideID, actor uuid.UUID) (*domain.Ride, error) {
	db := s.DB.WithContext(ctx)
	circle, err := findCircle(db, slug)
	if err != nil {
		return nil, database.Classify(ctx, err)
	}
	if _, err := memberships.FindActive(db, circle.CircleID, actor); err != nil {
		if err == domain.ErrMembershipNotFound {
			return nil, domain.ErrNotAMember
		}
		return nil, database.Classify(ctx, err)
	}
	var ride domain.Ride
	if err := db.Preload("Passengers").Where("ride_id = ? AND offered_in = ?", rideID, circle.CircleID).First(&ride).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrRideNotFound
		}
		return nil, database.Classify(ctx, err)
	}
	return &ride, nil
}
