package workflow

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/queue"
	"github.com/entregaszap/portaria/internal/repository"
)

// DeliveryStore is the slice of the delivery repository the registrar
// needs.
type DeliveryStore interface {
	CodeChecker
	Create(ctx context.Context, d *repository.DeliveryRow) (*repository.DeliveryDetail, error)
}

// EmployeeLister supplies the active staff a delivery can be assigned to.
type EmployeeLister interface {
	ListActive(ctx context.Context) ([]*repository.EmployeeRow, error)
}

// Notifier posts a payload to a webhook endpoint. An empty url means the
// default endpoint.
type Notifier interface {
	Send(ctx context.Context, url string, p notify.Payload) error
}

// EventPublisher emits domain events. Implementations are best-effort;
// the registrar ignores publish errors beyond logging.
type EventPublisher interface {
	DeliveryRegistered(ctx context.Context, ev queue.DeliveryRegisteredEvent) error
	DeliveryPickedUp(ctx context.Context, ev queue.DeliveryPickedUpEvent) error
}

// Registrar runs the register-and-notify flow for a batch of residents.
type Registrar struct {
	adapter    *identity.Adapter
	deliveries DeliveryStore
	employees  EmployeeLister
	notifier   Notifier
	events     EventPublisher
	clock      Clock
	delay      time.Duration
	rng        *rand.Rand
	log        *logrus.Logger
}

// NewRegistrar wires a registrar. delay is the courtesy pause between
// successive resident sends within one submission (1s in production);
// events may be nil when no broker is configured.
func NewRegistrar(
	adapter *identity.Adapter,
	deliveries DeliveryStore,
	employees EmployeeLister,
	notifier Notifier,
	events EventPublisher,
	clock Clock,
	delay time.Duration,
	rng *rand.Rand,
	log *logrus.Logger,
) *Registrar {
	return &Registrar{
		adapter:    adapter,
		deliveries: deliveries,
		employees:  employees,
		notifier:   notifier,
		events:     events,
		clock:      clock,
		delay:      delay,
		rng:        rng,
		log:        log,
	}
}

// RegisterRequest is one submission of the registration form: a building,
// the residents of one unit who should be notified, and what arrived.
// Code must be set for package registrations (assigned by the form
// session); it is ignored for other services.
type RegisterRequest struct {
	Building    model.Building
	Residents   []model.Resident
	Service     string
	Code        string
	PhotoURL    string
	Observation string
}

// SendOutcome is the per-resident result of a registration batch.
type SendOutcome struct {
	Resident model.Resident  `json:"resident"`
	Notified bool            `json:"notified"`
	Delivery *model.Delivery `json:"delivery,omitempty"`
	Warning  string          `json:"warning,omitempty"`
}

// RegisterResult summarizes a registration batch. The form should only
// reset when Succeeded is at least one.
type RegisterResult struct {
	Code      string        `json:"code,omitempty"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Outcomes  []SendOutcome `json:"outcomes"`
}

// Register notifies each selected resident in turn and, for package
// deliveries, persists a delivery record per successfully notified
// resident. Residents are processed sequentially with the configured
// delay between sends; a failed webhook call or a failed persist never
// aborts the remaining residents. Notification deliberately precedes
// persistence, so a persistence failure can leave a notified resident
// without a record; the degraded record is kept locally and flagged.
func (r *Registrar) Register(ctx context.Context, req RegisterRequest) RegisterResult {
	result := RegisterResult{
		Code:      req.Code,
		Attempted: len(req.Residents),
		Outcomes:  make([]SendOutcome, 0, len(req.Residents)),
	}

	for i, resident := range req.Residents {
		outcome := r.sendOne(ctx, req, resident)
		if outcome.Notified {
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if i < len(req.Residents)-1 {
			r.clock.Sleep(ctx, r.delay)
		}
	}
	return result
}

func (r *Registrar) sendOne(ctx context.Context, req RegisterRequest, resident model.Resident) SendOutcome {
	outcome := SendOutcome{Resident: resident}

	message := notify.RegistrationMessage(resident.Building, resident.Name, req.Service, req.Code, r.clock.Now())
	payload := notify.Payload{
		Building:    resident.Building,
		Resident:    resident.Name,
		Message:     message,
		Phone:       notify.NormalizePhone(resident.Phone),
		PhotoURL:    req.PhotoURL,
		Observation: req.Observation,
	}
	if req.Service == notify.ServicePackage {
		payload.Code = req.Code
	} else {
		payload.Service = req.Service
	}

	if err := r.notifier.Send(ctx, req.Building.WebhookURL, payload); err != nil {
		r.log.WithError(err).WithField("resident", resident.Name).Warn("registration notification failed")
		outcome.Warning = "notification failed"
		return outcome
	}
	outcome.Notified = true

	// Only packages leave a durable trace; other services are pure
	// notifications.
	if req.Service != notify.ServicePackage {
		return outcome
	}

	delivery, warning := r.persist(ctx, req, resident)
	outcome.Delivery = delivery
	outcome.Warning = warning
	return outcome
}

// persist writes the delivery record after a successful notification.
// When any required native identifier cannot be resolved, or the write
// itself fails, it falls back to a local-only record with a synthesized
// timestamp id so the front desk still sees the delivery.
func (r *Registrar) persist(ctx context.Context, req RegisterRequest, resident model.Resident) (*model.Delivery, string) {
	residentNative, okResident := r.adapter.ToNativeID(resident.ID)
	buildingNative, okBuilding := r.adapter.ToNativeID(req.Building.ID)

	employeeNative := ""
	if rows, err := r.employees.ListActive(ctx); err == nil && len(rows) > 0 {
		employeeNative = rows[r.rng.Intn(len(rows))].ID
	}

	if !okResident || !okBuilding || employeeNative == "" {
		r.log.WithFields(logrus.Fields{
			"resident_resolved": okResident,
			"building_resolved": okBuilding,
			"employee_assigned": employeeNative != "",
		}).Warn("delivery saved locally only")
		return r.localOnly(req, resident), "delivery saved locally only; record is not persisted"
	}

	row := identity.DeliveryInsert(req.Code, residentNative, employeeNative, buildingNative, req.PhotoURL, req.Observation, true)
	detail, err := r.deliveries.Create(ctx, row)
	if err != nil {
		r.log.WithError(err).Warn("delivery persist failed after notification")
		return r.localOnly(req, resident), "delivery saved locally only; record is not persisted"
	}

	saved := r.adapter.Delivery(detail)
	if r.events != nil {
		ev := queue.DeliveryRegisteredEvent{
			DeliveryID:   detail.ID,
			Code:         detail.Code,
			ResidentName: detail.Resident.Name,
			BuildingName: detail.Building.Name,
			ReceivedAt:   detail.ReceivedAt.UTC().Format(time.RFC3339),
		}
		if err := r.events.DeliveryRegistered(ctx, ev); err != nil {
			r.log.WithError(err).Warn("delivery.registered publish failed")
		}
	}
	return &saved, ""
}

func (r *Registrar) localOnly(req RegisterRequest, resident model.Resident) *model.Delivery {
	return &model.Delivery{
		ID:          r.clock.Now().UnixMilli(),
		Persist:     model.LocalOnly(),
		Code:        req.Code,
		ResidentID:  resident.ID,
		Status:      model.StatusPending,
		ReceivedAt:  r.clock.Now(),
		PhotoURL:    req.PhotoURL,
		Observation: req.Observation,
	}
}
