package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
)

func TestBroadcastSendsToEveryResident(t *testing.T) {
	notifier := newFakeNotifier()
	clock := newFakeClock()
	b := NewBroadcaster(notifier, clock, testDelay, quietLogger())

	result := b.Send(context.Background(), BroadcastRequest{
		Building: model.Building{Name: "Residencial Aurora", WebhookURL: "https://hook.example/aurora"},
		Residents: []model.Resident{
			{Name: "Maria Santos", Phone: "11999998888"},
			{Name: "Pedro Lima", Phone: "11988887777"},
		},
		Manager: "Carlos Síndico",
		Text:    "Reunião sábado às 10h.",
	})

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, result.Failed)

	require.Len(t, notifier.sent, 2)
	p := notifier.sent[0]
	assert.Equal(t, notify.TypeManagerMessage, p.Type)
	assert.Equal(t, "Maria Santos", p.Name)
	assert.Equal(t, "Carlos Síndico", p.Manager)
	assert.Equal(t, clock.Now().Format("02/01/2006"), p.SentDate)
	assert.Contains(t, p.Message, "Reunião sábado às 10h.")

	assert.Len(t, clock.sleeps, 1)
}

func TestBroadcastCollectsFailuresByName(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.failFor["Maria Santos"] = true
	b := NewBroadcaster(notifier, newFakeClock(), testDelay, quietLogger())

	result := b.Send(context.Background(), BroadcastRequest{
		Building: model.Building{Name: "Residencial Aurora"},
		Residents: []model.Resident{
			{Name: "Maria Santos", Phone: "11999998888"},
			{Name: "Pedro Lima", Phone: "11988887777"},
		},
		Manager: "Carlos Síndico",
		Text:    "Aviso",
	})

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []string{"Maria Santos"}, result.Failed)
}
