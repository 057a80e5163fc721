package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/repository"
)

// ReminderStore is the slice of the delivery repository the reminder
// flow needs.
type ReminderStore interface {
	ListPending(ctx context.Context, buildingID string) ([]*repository.DeliveryDetail, error)
	TouchReminder(ctx context.Context, id string) error
}

// ReminderItem is one pending delivery as shown on the reminder screen.
type ReminderItem struct {
	Delivery    model.Delivery `json:"delivery"`
	Resident    model.Resident `json:"resident"`
	Building    string         `json:"building"`
	DaysWaiting int            `json:"days_waiting"`
}

// ReminderResult is the per-batch outcome of a reminder send.
type ReminderResult struct {
	Attempted int     `json:"attempted"`
	Succeeded []int64 `json:"succeeded"`
	Failed    []int64 `json:"failed"`
}

// ReminderService re-notifies residents with long-pending deliveries.
// The sent and excluded buckets live in session memory only: they track
// what this process already nudged or hid from view, never the store.
// Failed items stay in the pending bucket and remain eligible for retry;
// a separate resend path re-runs the send against already-sent items.
type ReminderService struct {
	mu       sync.Mutex
	sent     map[int64]bool
	excluded map[int64]bool

	adapter  *identity.Adapter
	store    ReminderStore
	notifier Notifier
	clock    Clock
	delay    time.Duration
	log      *logrus.Logger
}

// NewReminderService wires a reminder service. delay is the pause
// between items within one batch (2s in production).
func NewReminderService(adapter *identity.Adapter, store ReminderStore, notifier Notifier, clock Clock, delay time.Duration, log *logrus.Logger) *ReminderService {
	return &ReminderService{
		sent:     make(map[int64]bool),
		excluded: make(map[int64]bool),
		adapter:  adapter,
		store:    store,
		notifier: notifier,
		clock:    clock,
		delay:    delay,
		log:      log,
	}
}

// Pending returns the pending deliveries still eligible for a first
// reminder in this session.
func (s *ReminderService) Pending(ctx context.Context, buildingID string) ([]ReminderItem, error) {
	return s.listBucket(ctx, buildingID, false)
}

// Sent returns the deliveries already reminded in this session.
func (s *ReminderService) Sent(ctx context.Context, buildingID string) ([]ReminderItem, error) {
	return s.listBucket(ctx, buildingID, true)
}

func (s *ReminderService) listBucket(ctx context.Context, buildingID string, wantSent bool) ([]ReminderItem, error) {
	details, err := s.store.ListPending(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.clock.Now()
	items := make([]ReminderItem, 0, len(details))
	for _, d := range details {
		localID := s.adapter.ToLocalID(d.ID)
		if s.excluded[localID] || s.sent[localID] != wantSent {
			continue
		}
		items = append(items, s.item(d, today))
	}
	return items, nil
}

func (s *ReminderService) item(d *repository.DeliveryDetail, today time.Time) ReminderItem {
	resident := s.adapter.Resident(&d.Resident, []*repository.BuildingRow{&d.Building})
	return ReminderItem{
		Delivery:    s.adapter.Delivery(d),
		Resident:    resident,
		Building:    d.Building.Name,
		DaysWaiting: daysBetween(d.ReceivedAt, today),
	}
}

// Send posts a reminder for each selected delivery, sequentially, with
// the configured delay between items. Successes move to the sent bucket
// and stamp ultimo_lembrete_enviado; failures stay pending for retry.
func (s *ReminderService) Send(ctx context.Context, ids []int64) (*ReminderResult, error) {
	return s.send(ctx, ids)
}

// Resend re-runs the send logic against items already in the sent
// bucket. The bucket membership does not change on failure.
func (s *ReminderService) Resend(ctx context.Context, ids []int64) (*ReminderResult, error) {
	return s.send(ctx, ids)
}

func (s *ReminderService) send(ctx context.Context, ids []int64) (*ReminderResult, error) {
	details, err := s.store.ListPending(ctx, "")
	if err != nil {
		return nil, err
	}
	byLocalID := make(map[int64]*repository.DeliveryDetail, len(details))
	for _, d := range details {
		byLocalID[s.adapter.ToLocalID(d.ID)] = d
	}

	result := &ReminderResult{}
	targets := make([]*repository.DeliveryDetail, 0, len(ids))
	targetIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		if d, ok := byLocalID[id]; ok {
			targets = append(targets, d)
			targetIDs = append(targetIDs, id)
		}
	}
	result.Attempted = len(targets)

	for i, d := range targets {
		localID := targetIDs[i]
		payload := notify.Payload{
			Building: d.Building.Name,
			Resident: d.Resident.Name,
			Message:  notify.ReminderMessage(d.Building.Name, d.Resident.Name, d.Code, d.ReceivedAt),
			Phone:    notify.NormalizePhone(d.Resident.Phone),
		}

		if err := s.notifier.Send(ctx, d.Building.WebhookURL.String, payload); err != nil {
			s.log.WithError(err).WithField("code", d.Code).Warn("reminder send failed")
			result.Failed = append(result.Failed, localID)
		} else {
			result.Succeeded = append(result.Succeeded, localID)
			s.mu.Lock()
			s.sent[localID] = true
			s.mu.Unlock()
			if err := s.store.TouchReminder(ctx, d.ID); err != nil {
				s.log.WithError(err).WithField("code", d.Code).Warn("reminder timestamp update failed")
			}
		}

		if i < len(targets)-1 {
			s.clock.Sleep(ctx, s.delay)
		}
	}
	return result, nil
}

// Exclude hides a delivery from the reminder view for the rest of the
// session. Nothing is deleted from the store.
func (s *ReminderService) Exclude(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excluded[id] = true
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay) / (24 * time.Hour))
}
