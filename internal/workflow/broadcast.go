package workflow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
)

// BroadcastRequest is a síndico message to every selected resident of a
// building.
type BroadcastRequest struct {
	Building  model.Building
	Residents []model.Resident
	Manager   string
	Text      string
}

// BroadcastResult counts the per-resident outcomes of a broadcast.
type BroadcastResult struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

// Broadcaster sends síndico announcements resident by resident with the
// same sequential-send discipline as registrations.
type Broadcaster struct {
	notifier Notifier
	clock    Clock
	delay    time.Duration
	log      *logrus.Logger
}

// NewBroadcaster wires a broadcaster.
func NewBroadcaster(notifier Notifier, clock Clock, delay time.Duration, log *logrus.Logger) *Broadcaster {
	return &Broadcaster{notifier: notifier, clock: clock, delay: delay, log: log}
}

// Send posts the announcement to each resident in turn. Failures are
// collected by resident name and never abort the batch.
func (b *Broadcaster) Send(ctx context.Context, req BroadcastRequest) BroadcastResult {
	result := BroadcastResult{Attempted: len(req.Residents)}
	sentDate := b.clock.Now().Format("02/01/2006")

	for i, resident := range req.Residents {
		payload := notify.Payload{
			Building: req.Building.Name,
			Resident: resident.Name,
			Message:  notify.ManagerMessage(req.Building.Name, resident.Name, req.Manager, req.Text),
			Phone:    notify.NormalizePhone(resident.Phone),
			Type:     notify.TypeManagerMessage,
			Name:     resident.Name,
			Manager:  req.Manager,
			SentDate: sentDate,
		}

		if err := b.notifier.Send(ctx, req.Building.WebhookURL, payload); err != nil {
			b.log.WithError(err).WithField("resident", resident.Name).Warn("broadcast send failed")
			result.Failed = append(result.Failed, resident.Name)
		} else {
			result.Succeeded++
		}

		if i < len(req.Residents)-1 {
			b.clock.Sleep(ctx, b.delay)
		}
	}
	return result
}
