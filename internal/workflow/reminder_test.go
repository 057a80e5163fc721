package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/repository"
)

type reminderFixture struct {
	adapter  *identity.Adapter
	store    *fakeDeliveryStore
	notifier *fakeNotifier
	clock    *fakeClock
	service  *ReminderService
}

func newReminderFixture(details ...*repository.DeliveryDetail) *reminderFixture {
	f := &reminderFixture{
		adapter:  identity.NewAdapter(),
		store:    newFakeDeliveryStore(),
		notifier: newFakeNotifier(),
		clock:    newFakeClock(),
	}
	f.store.pending = details
	f.service = NewReminderService(f.adapter, f.store, f.notifier, f.clock, testDelay, quietLogger())
	return f
}

func threeDaysOld(clock *fakeClock) time.Time { return clock.Now().Add(-72 * time.Hour) }

func TestReminderPendingBucket(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(
		newDetail("e-1", "11111", threeDaysOld(clock)),
		newDetail("e-2", "22222", clock.Now()),
	)

	items, err := f.service.Pending(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].DaysWaiting)
	assert.Equal(t, 0, items[1].DaysWaiting)
	assert.Equal(t, "Residencial Aurora", items[0].Building)
}

func TestReminderSendMovesToSentBucket(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(newDetail("e-1", "11111", threeDaysOld(clock)))

	pending, err := f.service.Pending(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	id := pending[0].Delivery.ID

	result, err := f.service.Send(context.Background(), []int64{id})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, []int64{id}, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"e-1"}, f.store.reminded)

	pending, err = f.service.Pending(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, pending)

	sent, err := f.service.Sent(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, id, sent[0].Delivery.ID)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].Message, "*11111*")
}

func TestReminderFailedSendStaysPending(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(newDetail("e-1", "11111", threeDaysOld(clock)))
	f.notifier.failFor["Maria Santos"] = true

	pending, _ := f.service.Pending(context.Background(), "")
	id := pending[0].Delivery.ID

	result, err := f.service.Send(context.Background(), []int64{id})
	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	assert.Equal(t, []int64{id}, result.Failed)
	assert.Empty(t, f.store.reminded)

	pending, err = f.service.Pending(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed items stay eligible for retry")
}

func TestReminderBatchDelaysBetweenItems(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(
		newDetail("e-1", "11111", threeDaysOld(clock)),
		newDetail("e-2", "22222", threeDaysOld(clock)),
	)

	pending, _ := f.service.Pending(context.Background(), "")
	ids := []int64{pending[0].Delivery.ID, pending[1].Delivery.ID}

	_, err := f.service.Send(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, f.clock.sleeps, 1, "pause between items, not after the last")
}

func TestReminderResendKeepsSentBucket(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(newDetail("e-1", "11111", threeDaysOld(clock)))

	pending, _ := f.service.Pending(context.Background(), "")
	id := pending[0].Delivery.ID
	_, err := f.service.Send(context.Background(), []int64{id})
	require.NoError(t, err)

	result, err := f.service.Resend(context.Background(), []int64{id})
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, result.Succeeded)

	sent, _ := f.service.Sent(context.Background(), "")
	assert.Len(t, sent, 1)
	assert.Len(t, f.notifier.sent, 2)
}

func TestReminderExcludeHidesFromBothBuckets(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(newDetail("e-1", "11111", threeDaysOld(clock)))

	pending, _ := f.service.Pending(context.Background(), "")
	id := pending[0].Delivery.ID

	f.service.Exclude(id)

	pending, _ = f.service.Pending(context.Background(), "")
	assert.Empty(t, pending)
	sent, _ := f.service.Sent(context.Background(), "")
	assert.Empty(t, sent)
}

func TestReminderUnknownIDsAreIgnored(t *testing.T) {
	clock := newFakeClock()
	f := newReminderFixture(newDetail("e-1", "11111", threeDaysOld(clock)))

	result, err := f.service.Send(context.Background(), []int64{424242})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Attempted)
	assert.Empty(t, f.notifier.sent)
}
