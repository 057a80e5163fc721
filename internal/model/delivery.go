package model

import "time"

// DeliveryStatus is the status of a delivery as exposed by the API.
// The database keeps the Portuguese enum (pendente/retirada/cancelada);
// the identity adapter translates between the two vocabularies.
//
// Cancelled is deliberately distinct from Pending: the source system
// collapsed cancelled deliveries back into pending, which made them
// resurface as actionable work at the front desk. Cancelled deliveries
// are visible in reports only.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusPickedUp  DeliveryStatus = "picked-up"
	StatusCancelled DeliveryStatus = "cancelled"
)

// PersistState records whether a delivery made it into the database or
// only exists in process memory after a degraded registration. Keeping
// this as an explicit tag forces callers to handle both cases instead of
// probing a maybe-empty native id.
type PersistState struct {
	kind     persistKind
	nativeID string
}

type persistKind int

const (
	persistLocalOnly persistKind = iota
	persistPersisted
)

// Persisted tags a delivery with the backend row id it was stored under.
func Persisted(nativeID string) PersistState {
	return PersistState{kind: persistPersisted, nativeID: nativeID}
}

// LocalOnly tags a delivery that could not be written to the store.
func LocalOnly() PersistState {
	return PersistState{kind: persistLocalOnly}
}

// IsPersisted reports whether the delivery has a durable backend row.
func (p PersistState) IsPersisted() bool { return p.kind == persistPersisted }

// NativeID returns the backend row id and whether one exists.
func (p PersistState) NativeID() (string, bool) {
	return p.nativeID, p.kind == persistPersisted
}

// Delivery is a package delivery as consumed by the dashboard. ID is the
// process-local sequential id; Persist carries the backend identity once
// known. Code is the 5-digit retrieval code handed to the resident.
type Delivery struct {
	ID           int64          `json:"id"`
	Persist      PersistState   `json:"-"`
	Code         string         `json:"code"`
	ResidentID   int64          `json:"resident_id"`
	EmployeeID   int64          `json:"employee_id"`
	Status       DeliveryStatus `json:"status"`
	ReceivedAt   time.Time      `json:"received_at"`
	PickedUpAt   *time.Time     `json:"picked_up_at,omitempty"`
	PhotoURL     string         `json:"photo_url,omitempty"`
	PickupPerson string         `json:"pickup_person,omitempty"`
	Observation  string         `json:"observation,omitempty"`
}
