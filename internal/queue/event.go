// Package queue defines the domain events exchanged over the message
// broker and the background consumer that turns them into an audit log.
package queue

// DeliveryRegisteredEvent is published after a package delivery is
// persisted. It carries enough to log or notify downstream without
// querying the primary database.
type DeliveryRegisteredEvent struct {
	DeliveryID   string `json:"delivery_id"`
	Code         string `json:"code"`
	ResidentName string `json:"resident_name"`
	BuildingName string `json:"building_name"`
	ReceivedAt   string `json:"received_at"`
}

// DeliveryPickedUpEvent is published after a pickup confirmation is
// persisted.
type DeliveryPickedUpEvent struct {
	DeliveryID   string `json:"delivery_id"`
	Code         string `json:"code"`
	ResidentName string `json:"resident_name"`
	BuildingName string `json:"building_name"`
	PickedUpBy   string `json:"picked_up_by"`
	PickedUpAt   string `json:"picked_up_at"`
}

// Queue names. Durable queues, one per event type.
const (
	RegisteredQueue = "delivery.registered"
	PickedUpQueue   = "delivery.pickedup"
)
