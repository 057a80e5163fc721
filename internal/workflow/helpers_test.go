package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/repository"
)

var errBoom = errors.New("boom")

const testDelay = time.Second

func newTestAdapter() *identity.Adapter { return identity.NewAdapter() }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fakeClock advances only through Sleep and records every pause.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// fakeNotifier records sends and fails the residents listed in failFor.
type fakeNotifier struct {
	sent    []notify.Payload
	urls    []string
	failFor map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: map[string]bool{}}
}

func (n *fakeNotifier) Send(_ context.Context, url string, p notify.Payload) error {
	if n.failFor[p.Resident] {
		return errBoom
	}
	n.sent = append(n.sent, p)
	n.urls = append(n.urls, url)
	return nil
}

// fakeDeliveryStore implements DeliveryStore, PickupStore and
// ReminderStore over an in-memory slice of details.
type fakeDeliveryStore struct {
	inUse     map[string]bool
	createErr error
	created   []*repository.DeliveryRow
	pending   []*repository.DeliveryDetail

	pickedUp  map[string]string
	reminded  []string
	markErr   error
	checkErrs int
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		inUse:    map[string]bool{},
		pickedUp: map[string]string{},
	}
}

func (s *fakeDeliveryStore) CodeInUse(_ context.Context, code string) (bool, error) {
	if s.checkErrs > 0 {
		s.checkErrs--
		return false, errBoom
	}
	return s.inUse[code], nil
}

func (s *fakeDeliveryStore) Create(_ context.Context, d *repository.DeliveryRow) (*repository.DeliveryDetail, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	d.ID = fmt.Sprintf("e-%d", len(s.created)+1)
	s.created = append(s.created, d)
	detail := newDetail(d.ID, d.Code, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC))
	detail.ResidentID = d.ResidentID
	detail.EmployeeID = d.EmployeeID
	detail.BuildingID = d.BuildingID
	return detail, nil
}

func (s *fakeDeliveryStore) FindPendingByCode(_ context.Context, code string) (*repository.DeliveryDetail, error) {
	for _, d := range s.pending {
		if d.Code == code && d.Status == repository.DBStatusPending {
			return d, nil
		}
	}
	return nil, repository.ErrDeliveryNotFound
}

func (s *fakeDeliveryStore) MarkPickedUp(_ context.Context, id, pickupPerson string) error {
	if s.markErr != nil {
		return s.markErr
	}
	for _, d := range s.pending {
		if d.ID == id && d.Status == repository.DBStatusPending {
			s.pickedUp[id] = pickupPerson
			return nil
		}
	}
	return repository.ErrNotPending
}

func (s *fakeDeliveryStore) ListPending(_ context.Context, buildingID string) ([]*repository.DeliveryDetail, error) {
	var out []*repository.DeliveryDetail
	for _, d := range s.pending {
		if d.Status != repository.DBStatusPending {
			continue
		}
		if buildingID != "" && d.BuildingID != buildingID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeDeliveryStore) TouchReminder(_ context.Context, id string) error {
	s.reminded = append(s.reminded, id)
	return nil
}

// fakeEmployees serves a fixed active-staff list.
type fakeEmployees struct {
	rows []*repository.EmployeeRow
	err  error
}

func (f *fakeEmployees) ListActive(_ context.Context) ([]*repository.EmployeeRow, error) {
	return f.rows, f.err
}

// newDetail builds a pending delivery joined with canned resident,
// employee and building rows.
func newDetail(id, code string, receivedAt time.Time) *repository.DeliveryDetail {
	return &repository.DeliveryDetail{
		DeliveryRow: repository.DeliveryRow{
			ID:         id,
			Code:       code,
			ResidentID: "m-1",
			EmployeeID: "f-1",
			BuildingID: "b-1",
			Status:     repository.DBStatusPending,
			ReceivedAt: receivedAt,
		},
		Resident: repository.ResidentRow{
			ID:         "m-1",
			BuildingID: "b-1",
			Name:       "Maria Santos",
			Apartment:  "101",
			Phone:      "11999998888",
			Active:     true,
		},
		Employee: repository.EmployeeRow{
			ID:         "f-1",
			BuildingID: "b-1",
			Name:       "João Porteiro",
			Role:       "porteiro",
			Active:     true,
		},
		Building: repository.BuildingRow{
			ID:         "b-1",
			Name:       "Residencial Aurora",
			WebhookURL: sql.NullString{String: "https://hook.example/aurora", Valid: true},
			Active:     true,
		},
	}
}
