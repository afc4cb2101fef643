package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory stores standing in for the Mongo collections. They copy on
// read and write so the engine never shares memory with "persisted" state,
// mirroring how documents behave behind a driver.

type fakeVehicleStore struct {
	mu       sync.Mutex
	vehicles map[string]models.Vehicle
}

func newFakeVehicleStore(vehicles ...models.Vehicle) *fakeVehicleStore {
	s := &fakeVehicleStore{vehicles: make(map[string]models.Vehicle)}
	for _, v := range vehicles {
		s.vehicles[v.ID.Hex()] = v
	}
	return s
}

func (s *fakeVehicleStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[vehicle.ID.Hex()] = vehicle
	return nil
}

func (s *fakeVehicleStore) FindVehicles(ctx context.Context, vehicleType string) ([]models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Vehicle
	for _, v := range s.vehicles {
		if vehicleType == "" || v.Type == vehicleType {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeVehicleStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := v
	copied.BlockedPeriods = append([]models.BlockedPeriod(nil), v.BlockedPeriods...)
	return &copied, nil
}

func (s *fakeVehicleStore) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[id] = vehicle
	return nil
}

func (s *fakeVehicleStore) DeleteVehicle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vehicles, id)
	return nil
}

func (s *fakeVehicleStore) AppendBlockedPeriod(ctx context.Context, id string, period models.BlockedPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	v.BlockedPeriods = append(v.BlockedPeriods, period)
	s.vehicles[id] = v
	return nil
}

func (s *fakeVehicleStore) RemoveBlockedPeriod(ctx context.Context, id string, period models.BlockedPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	kept := v.BlockedPeriods[:0]
	for _, p := range v.BlockedPeriods {
		if !p.StartDate.Equal(period.StartDate) || !p.EndDate.Equal(period.EndDate) {
			kept = append(kept, p)
		}
	}
	v.BlockedPeriods = kept
	s.vehicles[id] = v
	return nil
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func newFakeBookingStore(bookings ...models.Booking) *fakeBookingStore {
	s := &fakeBookingStore{bookings: make(map[string]models.Booking)}
	for _, b := range bookings {
		s.bookings[b.ID.Hex()] = b
	}
	return s
}

func (s *fakeBookingStore) InsertBooking(ctx context.Context, booking models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[booking.ID.Hex()] = booking
	return nil
}

func (s *fakeBookingStore) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := b
	return &copied, nil
}

func (s *fakeBookingStore) FindBookings(ctx context.Context, filter db.BookingFilter) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if len(filter.Statuses) > 0 {
			matched := false
			for _, st := range filter.Statuses {
				if b.Status == st {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.DriverID != nil && (b.DriverID == nil || *b.DriverID != *filter.DriverID) {
			continue
		}
		if filter.TouristID != nil && b.TouristID != *filter.TouristID {
			continue
		}
		if filter.VehicleID != nil && b.VehicleID != *filter.VehicleID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *fakeBookingStore) ReplaceBookingIfStatus(ctx context.Context, id string, expected models.BookingStatus, booking models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bookings[id]
	if !ok || current.Status != expected {
		return db.ErrStaleWrite
	}
	s.bookings[id] = booking
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID.Hex()] = u
	}
	return s
}

func (s *fakeUserStore) InsertUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID.Hex()] = user
	return nil
}

func (s *fakeUserStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := u
	return &copied, nil
}

func (s *fakeUserStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := u
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeUserStore) FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) UpdateUser(ctx context.Context, id string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	return nil
}

// recordingPublisher captures published booking events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishBookingEvent(event string, booking models.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func testVehicle() models.Vehicle {
	return models.Vehicle{
		ID:             primitive.NewObjectID(),
		Type:           models.VehicleTypeCar,
		Brand:          "Toyota",
		Model:          "Corolla",
		Seats:          4,
		PricePerDay:    50,
		PricePerHour:   7,
		Available:      true,
		BlockedPeriods: []models.BlockedPeriod{},
	}
}

func testRequest(vehicleID string) models.BookingRequest {
	return models.BookingRequest{
		VehicleID:      vehicleID,
		PickupDate:     "2024-07-10",
		ReturnDate:     "2024-07-12",
		PickupLocation: "Colombo Airport",
		ReturnLocation: "Galle Fort",
		Passengers:     2,
		DriverOption:   models.DriverOptionSelfDrive,
	}
}

func TestComputeTotalPrice(t *testing.T) {
	v := testVehicle()

	t.Run("multi-day rental uses daily rate", func(t *testing.T) {
		price := computeTotalPrice(&v, day(t, "2024-07-10"), day(t, "2024-07-12"))
		assert.Equal(t, 100.0, price)
	})

	t.Run("partial days round up", func(t *testing.T) {
		pickup := day(t, "2024-07-10")
		price := computeTotalPrice(&v, pickup, pickup.Add(25*time.Hour))
		assert.Equal(t, 100.0, price)
	})

	t.Run("short rental uses hourly rate", func(t *testing.T) {
		pickup := day(t, "2024-07-10")
		price := computeTotalPrice(&v, pickup, pickup.Add(5*time.Hour))
		assert.Equal(t, 35.0, price)
	})
}

func TestRequestBooking(t *testing.T) {
	ctx := context.Background()
	tourist := primitive.NewObjectID()

	t.Run("creates a pending booking and blocks the vehicle", func(t *testing.T) {
		v := testVehicle()
		vehicles := newFakeVehicleStore(v)
		bookings := newFakeBookingStore()
		publisher := &recordingPublisher{}
		engine := NewEngine(vehicles, bookings, newFakeUserStore(), publisher)

		created, err := engine.RequestBooking(ctx, testRequest(v.ID.Hex()), tourist.Hex())
		require.NoError(t, err)

		assert.Equal(t, models.BookingStatusPending, created.Status)
		assert.Equal(t, v.ID, created.VehicleID)
		assert.Equal(t, tourist, created.TouristID)
		assert.Nil(t, created.DriverID)
		assert.Equal(t, 100.0, created.TotalPrice)
		assert.Regexp(t, "^BK-", created.Reference)

		stored, err := vehicles.FindVehicleByID(ctx, v.ID.Hex())
		require.NoError(t, err)
		require.Len(t, stored.BlockedPeriods, 1)
		assert.Equal(t, created.PickupDate, stored.BlockedPeriods[0].StartDate)
		assert.Equal(t, created.ReturnDate, stored.BlockedPeriods[0].EndDate)

		assert.Equal(t, []string{"created"}, publisher.recorded())
	})

	t.Run("second overlapping request is rejected while first is pending", func(t *testing.T) {
		v := testVehicle()
		vehicles := newFakeVehicleStore(v)
		engine := NewEngine(vehicles, newFakeBookingStore(), newFakeUserStore(), nil)

		_, err := engine.RequestBooking(ctx, testRequest(v.ID.Hex()), tourist.Hex())
		require.NoError(t, err)

		second := testRequest(v.ID.Hex())
		second.PickupDate = "2024-07-11"
		second.ReturnDate = "2024-07-13"
		_, err = engine.RequestBooking(ctx, second, tourist.Hex())
		assert.ErrorIs(t, err, ErrVehicleUnavailable)
	})

	t.Run("back-to-back request touching the boundary succeeds", func(t *testing.T) {
		v := testVehicle()
		vehicles := newFakeVehicleStore(v)
		engine := NewEngine(vehicles, newFakeBookingStore(), newFakeUserStore(), nil)

		_, err := engine.RequestBooking(ctx, testRequest(v.ID.Hex()), tourist.Hex())
		require.NoError(t, err)

		second := testRequest(v.ID.Hex())
		second.PickupDate = "2024-07-12"
		second.ReturnDate = "2024-07-14"
		_, err = engine.RequestBooking(ctx, second, tourist.Hex())
		assert.NoError(t, err)
	})

	t.Run("vehicle switched off by admin is unavailable", func(t *testing.T) {
		v := testVehicle()
		v.Available = false
		engine := NewEngine(newFakeVehicleStore(v), newFakeBookingStore(), newFakeUserStore(), nil)

		_, err := engine.RequestBooking(ctx, testRequest(v.ID.Hex()), tourist.Hex())
		assert.ErrorIs(t, err, ErrVehicleUnavailable)
	})

	t.Run("unknown vehicle is not found", func(t *testing.T) {
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(), newFakeUserStore(), nil)
		_, err := engine.RequestBooking(ctx, testRequest(primitive.NewObjectID().Hex()), tourist.Hex())
		assert.True(t, IsNotFound(err))
	})

	t.Run("invalid request never reaches availability checking", func(t *testing.T) {
		v := testVehicle()
		vehicles := newFakeVehicleStore(v)
		engine := NewEngine(vehicles, newFakeBookingStore(), newFakeUserStore(), nil)

		req := testRequest(v.ID.Hex())
		req.ReturnDate = "2024-07-09" // before pickup
		_, err := engine.RequestBooking(ctx, req, tourist.Hex())
		_, ok := AsValidationErrors(err)
		assert.True(t, ok)

		stored, _ := vehicles.FindVehicleByID(ctx, v.ID.Hex())
		assert.Empty(t, stored.BlockedPeriods)
	})

	t.Run("concurrent overlapping requests admit exactly one", func(t *testing.T) {
		v := testVehicle()
		vehicles := newFakeVehicleStore(v)
		engine := NewEngine(vehicles, newFakeBookingStore(), newFakeUserStore(), nil)

		const attempts = 8
		var wg sync.WaitGroup
		results := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := engine.RequestBooking(ctx, testRequest(v.ID.Hex()), tourist.Hex())
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrVehicleUnavailable)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestListAvailableVehicles(t *testing.T) {
	ctx := context.Background()

	busy := testVehicle()
	busy.BlockedPeriods = []models.BlockedPeriod{{StartDate: day(t, "2024-06-01"), EndDate: day(t, "2024-06-05")}}
	free := testVehicle()
	off := testVehicle()
	off.Available = false

	engine := NewEngine(newFakeVehicleStore(busy, free, off), newFakeBookingStore(), newFakeUserStore(), nil)

	t.Run("admin-disabled vehicles are never listed", func(t *testing.T) {
		listed, err := engine.ListAvailableVehicles(ctx, "", nil, nil)
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("date range drops conflicting vehicles", func(t *testing.T) {
		start, end := day(t, "2024-06-04"), day(t, "2024-06-06")
		listed, err := engine.ListAvailableVehicles(ctx, "", &start, &end)
		require.NoError(t, err)
		assert.Len(t, listed, 1)
		assert.Equal(t, free.ID, listed[0].ID)
	})
}

func TestTransitionBooking(t *testing.T) {
	ctx := context.Background()
	admin := primitive.NewObjectID()
	tourist := primitive.NewObjectID()

	newDriver := func() models.User {
		return models.User{
			ID:       primitive.NewObjectID(),
			Username: "kasun",
			Role:     models.RoleDriver,
			IsActive: true,
		}
	}

	pendingBooking := func(option string, driverID *primitive.ObjectID) models.Booking {
		return models.Booking{
			ID:           primitive.NewObjectID(),
			VehicleID:    primitive.NewObjectID(),
			TouristID:    tourist,
			PickupDate:   day(t, "2024-07-10"),
			ReturnDate:   day(t, "2024-07-12"),
			DriverOption: option,
			DriverID:     driverID,
			Status:       models.BookingStatusPending,
		}
	}

	t.Run("self-drive confirmation needs no driver", func(t *testing.T) {
		b := pendingBooking(models.DriverOptionSelfDrive, nil)
		publisher := &recordingPublisher{}
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(), publisher)

		updated, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, "")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, updated.Status)
		assert.Nil(t, updated.DriverID)
		assert.NotNil(t, updated.ConfirmedAt)
		assert.Equal(t, []string{"confirmed"}, publisher.recorded())
	})

	t.Run("self-drive confirmation rejects a supplied driver", func(t *testing.T) {
		d := newDriver()
		b := pendingBooking(models.DriverOptionSelfDrive, nil)
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(d), nil)

		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, d.ID.Hex())
		assert.ErrorIs(t, err, ErrInvalidDriver)
	})

	t.Run("with-driver confirmation without a driver fails", func(t *testing.T) {
		b := pendingBooking(models.DriverOptionWithDriver, nil)
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(), nil)

		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, "")
		assert.ErrorIs(t, err, ErrMissingDriver)
	})

	t.Run("with-driver confirmation assigns the supplied driver", func(t *testing.T) {
		d := newDriver()
		b := pendingBooking(models.DriverOptionWithDriver, nil)
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(d), nil)

		updated, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, d.ID.Hex())
		require.NoError(t, err)
		require.NotNil(t, updated.DriverID)
		assert.Equal(t, d.ID, *updated.DriverID)
	})

	t.Run("with-driver confirmation accepts a pre-assigned driver", func(t *testing.T) {
		d := newDriver()
		b := pendingBooking(models.DriverOptionWithDriver, &d.ID)
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(d), nil)

		updated, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, "")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, updated.Status)
	})

	t.Run("driver id must resolve to an account with the driver role", func(t *testing.T) {
		notADriver := models.User{ID: primitive.NewObjectID(), Role: models.RoleTourist, IsActive: true}
		b := pendingBooking(models.DriverOptionWithDriver, nil)
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(notADriver), nil)

		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, notADriver.ID.Hex())
		assert.ErrorIs(t, err, ErrInvalidDriver)

		_, err = engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrInvalidDriver)
	})

	t.Run("cancellation releases the blocked period and clears the driver", func(t *testing.T) {
		d := newDriver()
		v := testVehicle()
		b := pendingBooking(models.DriverOptionWithDriver, &d.ID)
		b.VehicleID = v.ID
		b.Status = models.BookingStatusConfirmed
		v.BlockedPeriods = []models.BlockedPeriod{{StartDate: b.PickupDate, EndDate: b.ReturnDate}}

		vehicles := newFakeVehicleStore(v)
		engine := NewEngine(vehicles, newFakeBookingStore(b), newFakeUserStore(d), nil)

		updated, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusCancelled, "")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, updated.Status)
		assert.Nil(t, updated.DriverID)

		stored, err := vehicles.FindVehicleByID(ctx, v.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, stored.BlockedPeriods)
	})

	t.Run("cancelling a pending booking also releases the period", func(t *testing.T) {
		v := testVehicle()
		b := pendingBooking(models.DriverOptionSelfDrive, nil)
		b.VehicleID = v.ID
		v.BlockedPeriods = []models.BlockedPeriod{{StartDate: b.PickupDate, EndDate: b.ReturnDate}}

		vehicles := newFakeVehicleStore(v)
		engine := NewEngine(vehicles, newFakeBookingStore(b), newFakeUserStore(), nil)

		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleTourist, tourist.Hex(), models.BookingStatusCancelled, "")
		require.NoError(t, err)

		stored, _ := vehicles.FindVehicleByID(ctx, v.ID.Hex())
		assert.Empty(t, stored.BlockedPeriods)
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		b := pendingBooking(models.DriverOptionSelfDrive, nil)
		b.Status = models.BookingStatusConfirmed
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(), nil)

		var invalid *InvalidTransitionError
		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusEnRoute, "")
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, models.BookingStatusConfirmed, invalid.From)
		assert.Equal(t, models.BookingStatusEnRoute, invalid.To)
	})

	t.Run("terminal states reject every transition", func(t *testing.T) {
		for _, terminal := range []models.BookingStatus{models.BookingStatusCompleted, models.BookingStatusCancelled} {
			b := pendingBooking(models.DriverOptionSelfDrive, nil)
			b.Status = terminal
			engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(), nil)

			var invalid *InvalidTransitionError
			_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, "")
			assert.ErrorAs(t, err, &invalid, "from %s", terminal)
		}
	})

	t.Run("progress by a driver other than the assignee is forbidden", func(t *testing.T) {
		d := newDriver()
		other := newDriver()
		b := pendingBooking(models.DriverOptionWithDriver, &d.ID)
		b.Status = models.BookingStatusPickedUp
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(d, other), nil)

		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleDriver, other.ID.Hex(), models.BookingStatusCompleted, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("assigned driver walks the booking forward", func(t *testing.T) {
		d := newDriver()
		b := pendingBooking(models.DriverOptionWithDriver, &d.ID)
		b.Status = models.BookingStatusConfirmed
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(d), nil)

		for _, step := range []models.BookingStatus{
			models.BookingStatusPickedUp,
			models.BookingStatusEnRoute,
			models.BookingStatusCompleted,
		} {
			updated, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleDriver, d.ID.Hex(), step, "")
			require.NoError(t, err, "step %s", step)
			assert.Equal(t, step, updated.Status)
		}
	})

	t.Run("unknown booking is not found", func(t *testing.T) {
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(), newFakeUserStore(), nil)
		_, err := engine.TransitionBooking(ctx, primitive.NewObjectID().Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, "")
		assert.True(t, IsNotFound(err))
	})

	t.Run("lost write race surfaces as an invalid transition", func(t *testing.T) {
		b := pendingBooking(models.DriverOptionSelfDrive, nil)
		store := newFakeBookingStore(b)
		engine := NewEngine(newFakeVehicleStore(), &staleBookingStore{store}, newFakeUserStore(), nil)

		var invalid *InvalidTransitionError
		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusConfirmed, "")
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("pending is never a transition target", func(t *testing.T) {
		b := pendingBooking(models.DriverOptionSelfDrive, nil)
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(b), newFakeUserStore(), nil)

		var invalid *InvalidTransitionError
		_, err := engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatusPending, "")
		assert.ErrorAs(t, err, &invalid)

		_, err = engine.TransitionBooking(ctx, b.ID.Hex(), models.RoleAdmin, admin.Hex(), models.BookingStatus("archived"), "")
		assert.ErrorAs(t, err, &invalid)
	})
}

// staleBookingStore makes every conditional write lose its race.
type staleBookingStore struct {
	*fakeBookingStore
}

func (s *staleBookingStore) ReplaceBookingIfStatus(ctx context.Context, id string, expected models.BookingStatus, booking models.Booking) error {
	return db.ErrStaleWrite
}

func TestListAvailableDrivers(t *testing.T) {
	ctx := context.Background()
	d1 := models.User{ID: primitive.NewObjectID(), Username: "kasun", Role: models.RoleDriver, IsActive: true}
	d2 := models.User{ID: primitive.NewObjectID(), Username: "nuwan", Role: models.RoleDriver, IsActive: true}

	confirmed := models.Booking{
		ID:         primitive.NewObjectID(),
		DriverID:   &d1.ID,
		PickupDate: day(t, "2024-07-10"),
		ReturnDate: day(t, "2024-07-12"),
		Status:     models.BookingStatusConfirmed,
	}
	pending := models.Booking{
		ID:         primitive.NewObjectID(),
		DriverID:   &d2.ID,
		PickupDate: day(t, "2024-07-10"),
		ReturnDate: day(t, "2024-07-12"),
		Status:     models.BookingStatusPending,
	}

	engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(confirmed, pending), newFakeUserStore(d1, d2), nil)

	t.Run("active booking blocks its driver", func(t *testing.T) {
		free, err := engine.ListAvailableDrivers(ctx, day(t, "2024-07-11"), day(t, "2024-07-13"))
		require.NoError(t, err)
		require.Len(t, free, 1)
		assert.Equal(t, d2.ID, free[0].ID)
	})

	t.Run("pending bookings never block a driver", func(t *testing.T) {
		free, err := engine.ListAvailableDrivers(ctx, day(t, "2024-07-20"), day(t, "2024-07-22"))
		require.NoError(t, err)
		assert.Len(t, free, 2)
	})
}

func TestDeleteDriver(t *testing.T) {
	ctx := context.Background()
	d := models.User{ID: primitive.NewObjectID(), Username: "kasun", Role: models.RoleDriver, IsActive: true}

	t.Run("rejected while a booking is en route", func(t *testing.T) {
		enRoute := models.Booking{
			ID:         primitive.NewObjectID(),
			DriverID:   &d.ID,
			PickupDate: day(t, "2024-07-10"),
			ReturnDate: day(t, "2024-07-12"),
			Status:     models.BookingStatusEnRoute,
		}
		users := newFakeUserStore(d)
		bookings := newFakeBookingStore(enRoute)
		engine := NewEngine(newFakeVehicleStore(), bookings, users, nil)

		err := engine.DeleteDriver(ctx, d.ID.Hex())
		assert.ErrorIs(t, err, ErrActiveBookingsExist)

		// Once the booking completes, deletion goes through.
		enRoute.Status = models.BookingStatusCompleted
		require.NoError(t, bookings.InsertBooking(ctx, enRoute))
		assert.NoError(t, engine.DeleteDriver(ctx, d.ID.Hex()))
		_, err = users.FindUserByID(ctx, d.ID.Hex())
		assert.Error(t, err)
	})

	t.Run("completed and cancelled bookings do not block deletion", func(t *testing.T) {
		done := models.Booking{ID: primitive.NewObjectID(), DriverID: &d.ID, Status: models.BookingStatusCompleted}
		gone := models.Booking{ID: primitive.NewObjectID(), DriverID: &d.ID, Status: models.BookingStatusCancelled}
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(done, gone), newFakeUserStore(d), nil)
		assert.NoError(t, engine.DeleteDriver(ctx, d.ID.Hex()))
	})

	t.Run("unknown driver is not found", func(t *testing.T) {
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(), newFakeUserStore(), nil)
		err := engine.DeleteDriver(ctx, primitive.NewObjectID().Hex())
		assert.True(t, IsNotFound(err))
	})

	t.Run("non-driver accounts are not deletable through this path", func(t *testing.T) {
		u := models.User{ID: primitive.NewObjectID(), Role: models.RoleTourist, IsActive: true}
		engine := NewEngine(newFakeVehicleStore(), newFakeBookingStore(), newFakeUserStore(u), nil)
		err := engine.DeleteDriver(ctx, u.ID.Hex())
		assert.True(t, IsNotFound(err))
	})
}
