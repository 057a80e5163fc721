package workflow

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/repository"
)

type registerFixture struct {
	adapter   *identity.Adapter
	store     *fakeDeliveryStore
	employees *fakeEmployees
	notifier  *fakeNotifier
	clock     *fakeClock
	registrar *Registrar

	building  model.Building
	residents []model.Resident
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()
	f := &registerFixture{
		adapter:  identity.NewAdapter(),
		store:    newFakeDeliveryStore(),
		notifier: newFakeNotifier(),
		clock:    newFakeClock(),
	}
	f.employees = &fakeEmployees{rows: []*repository.EmployeeRow{
		{ID: "f-1", Name: "João Porteiro", Active: true},
	}}
	f.registrar = NewRegistrar(
		f.adapter, f.store, f.employees, f.notifier, nil,
		f.clock, testDelay, rand.New(rand.NewSource(42)), quietLogger(),
	)

	f.building = model.Building{
		ID:         f.adapter.ToLocalID("b-1"),
		Name:       "Residencial Aurora",
		WebhookURL: "https://hook.example/aurora",
	}
	f.residents = []model.Resident{
		{
			ID:       f.adapter.ToLocalID("m-1"),
			Name:     "Maria Santos",
			Phone:    "(11) 99999-8888",
			Building: "Residencial Aurora",
		},
		{
			ID:       f.adapter.ToLocalID("m-2"),
			Name:     "Pedro Lima",
			Phone:    "11988887777",
			Building: "Residencial Aurora",
		},
	}
	return f
}

func (f *registerFixture) request(service, code string) RegisterRequest {
	return RegisterRequest{
		Building:  f.building,
		Residents: f.residents,
		Service:   service,
		Code:      code,
	}
}

func TestRegisterPackagePersistsPerResident(t *testing.T) {
	f := newRegisterFixture(t)

	result := f.registrar.Register(context.Background(), f.request(notify.ServicePackage, "12345"))

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, "12345", result.Code)
	require.Len(t, result.Outcomes, 2)
	require.Len(t, f.store.created, 2)

	for _, o := range result.Outcomes {
		assert.True(t, o.Notified)
		require.NotNil(t, o.Delivery)
		assert.True(t, o.Delivery.Persist.IsPersisted())
		assert.Empty(t, o.Warning)
	}

	// Both rows share the batch code and the assigned employee.
	for _, row := range f.store.created {
		assert.Equal(t, "12345", row.Code)
		assert.Equal(t, "f-1", row.EmployeeID)
		assert.Equal(t, "b-1", row.BuildingID)
		assert.True(t, row.MessageSent)
	}
	assert.Equal(t, "m-1", f.store.created[0].ResidentID)
	assert.Equal(t, "m-2", f.store.created[1].ResidentID)
}

func TestRegisterPayloadShape(t *testing.T) {
	f := newRegisterFixture(t)

	f.registrar.Register(context.Background(), f.request(notify.ServicePackage, "12345"))

	require.Len(t, f.notifier.sent, 2)
	p := f.notifier.sent[0]
	assert.Equal(t, "Residencial Aurora", p.Building)
	assert.Equal(t, "Maria Santos", p.Resident)
	assert.Equal(t, "5511999998888", p.Phone)
	assert.Equal(t, "12345", p.Code)
	assert.Empty(t, p.Service, "package sends carry the code, not a service name")
	assert.Contains(t, p.Message, "Código de retirada na portaria: *12345*")
	assert.Equal(t, "https://hook.example/aurora", f.notifier.urls[0])
}

func TestRegisterOtherServiceSkipsPersistence(t *testing.T) {
	f := newRegisterFixture(t)

	result := f.registrar.Register(context.Background(), f.request("delivery", ""))

	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, f.store.created)
	for _, o := range result.Outcomes {
		assert.True(t, o.Notified)
		assert.Nil(t, o.Delivery)
	}
	assert.Equal(t, "delivery", f.notifier.sent[0].Service)
	assert.Empty(t, f.notifier.sent[0].Code)
}

func TestRegisterDelaysBetweenResidentsOnly(t *testing.T) {
	f := newRegisterFixture(t)

	f.registrar.Register(context.Background(), f.request("delivery", ""))

	require.Len(t, f.clock.sleeps, 1)
	assert.Equal(t, testDelay, f.clock.sleeps[0])
}

func TestRegisterOneFailureNeverAbortsTheBatch(t *testing.T) {
	f := newRegisterFixture(t)
	f.notifier.failFor["Maria Santos"] = true

	result := f.registrar.Register(context.Background(), f.request(notify.ServicePackage, "12345"))

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)

	failed, sent := result.Outcomes[0], result.Outcomes[1]
	assert.False(t, failed.Notified)
	assert.Equal(t, "notification failed", failed.Warning)
	assert.Nil(t, failed.Delivery, "no record without a notification")

	assert.True(t, sent.Notified)
	require.NotNil(t, sent.Delivery)
	require.Len(t, f.store.created, 1)
	assert.Equal(t, "m-2", f.store.created[0].ResidentID)
}

func TestRegisterFallsBackToLocalOnlyOnPersistFailure(t *testing.T) {
	f := newRegisterFixture(t)
	f.store.createErr = errBoom

	result := f.registrar.Register(context.Background(), f.request(notify.ServicePackage, "12345"))

	assert.Equal(t, 2, result.Succeeded, "notification already went out")
	for _, o := range result.Outcomes {
		require.NotNil(t, o.Delivery)
		assert.False(t, o.Delivery.Persist.IsPersisted())
		assert.Greater(t, o.Delivery.ID, int64(0), "synthesized timestamp id")
		assert.Contains(t, o.Warning, "locally only")
	}
}

func TestRegisterFallsBackToLocalOnlyWithoutActiveStaff(t *testing.T) {
	f := newRegisterFixture(t)
	f.employees.rows = nil

	result := f.registrar.Register(context.Background(), f.request(notify.ServicePackage, "12345"))

	assert.Empty(t, f.store.created)
	for _, o := range result.Outcomes {
		require.NotNil(t, o.Delivery)
		assert.False(t, o.Delivery.Persist.IsPersisted())
		assert.Equal(t, model.StatusPending, o.Delivery.Status)
		assert.Contains(t, o.Warning, "locally only")
	}
}

func TestRegisterUnknownResidentIDGoesLocalOnly(t *testing.T) {
	f := newRegisterFixture(t)
	f.residents = []model.Resident{{
		ID:       999999, // never assigned by this adapter
		Name:     "Fantasma",
		Phone:    "11900000000",
		Building: "Residencial Aurora",
	}}

	result := f.registrar.Register(context.Background(), f.request(notify.ServicePackage, "12345"))

	assert.Empty(t, f.store.created)
	require.Len(t, result.Outcomes, 1)
	o := result.Outcomes[0]
	assert.True(t, o.Notified)
	require.NotNil(t, o.Delivery)
	assert.False(t, o.Delivery.Persist.IsPersisted())
}
