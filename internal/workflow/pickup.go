package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/queue"
	"github.com/entregaszap/portaria/internal/repository"
)

// ErrCodeTooShort is returned by Lookup before the typed code reaches
// the full five digits.
var ErrCodeTooShort = errors.New("retrieval code must have at least 5 digits")

// PickupPersons is the fixed vocabulary offered for "who collected it".
var PickupPersons = []string{
	"O próprio morador",
	"Filho(a)",
	"Cônjuge",
	"Vizinho(a)",
	"Empregado(a)",
	"Outro",
}

// PickupStore is the slice of the delivery repository the pickup flow
// needs.
type PickupStore interface {
	FindPendingByCode(ctx context.Context, code string) (*repository.DeliveryDetail, error)
	MarkPickedUp(ctx context.Context, id, pickupPerson string) error
}

// PickupMatch is a code lookup hit: the pending delivery and the
// resident waiting for it.
type PickupMatch struct {
	Delivery model.Delivery `json:"delivery"`
	Resident model.Resident `json:"resident"`
	Building string         `json:"building"`
}

// PickupService looks pending deliveries up by retrieval code and
// confirms their collection.
type PickupService struct {
	adapter  *identity.Adapter
	store    PickupStore
	notifier Notifier
	events   EventPublisher
	clock    Clock
	log      *logrus.Logger
}

// NewPickupService wires a pickup service; events may be nil.
func NewPickupService(adapter *identity.Adapter, store PickupStore, notifier Notifier, events EventPublisher, clock Clock, log *logrus.Logger) *PickupService {
	return &PickupService{
		adapter:  adapter,
		store:    store,
		notifier: notifier,
		events:   events,
		clock:    clock,
		log:      log,
	}
}

// Lookup finds the pending delivery carrying the code. Codes shorter
// than five digits are rejected before touching the store; picked-up and
// cancelled deliveries never match.
func (s *PickupService) Lookup(ctx context.Context, code string) (*PickupMatch, error) {
	if len(code) < 5 {
		return nil, ErrCodeTooShort
	}
	detail, err := s.store.FindPendingByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.match(detail), nil
}

// Confirm marks the pending delivery with the given code as picked up.
// Persistence comes first: only after the store accepts the transition
// does the local view change, and only then is the confirmation
// notification attempted. The notification is best-effort - a webhook
// failure is logged, never surfaced, and never rolls the pickup back.
func (s *PickupService) Confirm(ctx context.Context, code, pickedUpBy string) (*PickupMatch, error) {
	detail, err := s.store.FindPendingByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkPickedUp(ctx, detail.ID, pickedUpBy); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	detail.Status = repository.DBStatusPickedUp
	detail.PickedUpAt.Time, detail.PickedUpAt.Valid = now, true
	detail.PickupPerson.String, detail.PickupPerson.Valid = pickedUpBy, true
	match := s.match(detail)

	payload := notify.Payload{
		Building:   detail.Building.Name,
		Resident:   detail.Resident.Name,
		Message:    notify.PickupMessage(detail.Building.Name, detail.Resident.Name, detail.Code, pickedUpBy, now),
		Phone:      notify.NormalizePhone(detail.Resident.Phone),
		Code:       detail.Code,
		Type:       notify.TypePickupConfirmation,
		PickedUpBy: pickedUpBy,
	}
	if err := s.notifier.Send(ctx, detail.Building.WebhookURL.String, payload); err != nil {
		s.log.WithError(err).WithField("code", detail.Code).Warn("pickup confirmation notification failed")
	}

	if s.events != nil {
		ev := queue.DeliveryPickedUpEvent{
			DeliveryID:   detail.ID,
			Code:         detail.Code,
			ResidentName: detail.Resident.Name,
			BuildingName: detail.Building.Name,
			PickedUpBy:   pickedUpBy,
			PickedUpAt:   now.UTC().Format(time.RFC3339),
		}
		if err := s.events.DeliveryPickedUp(ctx, ev); err != nil {
			s.log.WithError(err).Warn("delivery.pickedup publish failed")
		}
	}
	return match, nil
}

func (s *PickupService) match(detail *repository.DeliveryDetail) *PickupMatch {
	resident := s.adapter.Resident(&detail.Resident, []*repository.BuildingRow{&detail.Building})
	return &PickupMatch{
		Delivery: s.adapter.Delivery(detail),
		Resident: resident,
		Building: detail.Building.Name,
	}
}
