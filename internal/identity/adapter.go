// Package identity maps backend row identifiers to the small sequential
// integers the dashboard works with, and reshapes database rows into the
// entities the API serves. The backend UUIDs never leave the server;
// clients only ever see the integers.
//
// The adapter is an explicit, injected instance (not a package-level
// singleton) so each server process - and each test - owns a fresh map.
package identity

import (
	"sync"

	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
)

// Adapter assigns process-local sequential ids to native identifiers.
// Assignments are stable for the lifetime of the adapter: the same
// native id always resolves to the same integer and back.
type Adapter struct {
	mu       sync.Mutex
	toLocal  map[string]int64
	toNative map[int64]string
	next     int64
}

// NewAdapter returns an adapter with an empty id space starting at 1.
func NewAdapter() *Adapter {
	return &Adapter{
		toLocal:  make(map[string]int64),
		toNative: make(map[int64]string),
		next:     1,
	}
}

// ToLocalID returns the integer previously assigned to nativeID, or
// assigns the next unused one. It never fails and never hands the same
// integer to two different native ids.
func (a *Adapter) ToLocalID(nativeID string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.toLocal[nativeID]; ok {
		return id
	}
	id := a.next
	a.next++
	a.toLocal[nativeID] = id
	a.toNative[id] = nativeID
	return id
}

// ToNativeID resolves a local integer back to its native id. The second
// return is false when the integer was never assigned by this adapter,
// e.g. an id synthesized for a local-only delivery.
func (a *Adapter) ToNativeID(localID int64) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	nativeID, ok := a.toNative[localID]
	return nativeID, ok
}

// Building shapes a condominios row into the API entity.
func (a *Adapter) Building(row *repository.BuildingRow) model.Building {
	return model.Building{
		ID:   a.ToLocalID(row.ID),
		Name: row.Name,
		Address: model.Address{
			Street: row.Street,
			City:   row.City,
			State:  row.State,
			Zip:    row.Zip,
		},
		WebhookURL: row.WebhookURL.String,
	}
}

// Resident shapes a moradores row, resolving the denormalized building
// name by joining on the building's native id. A missing building
// degrades to an empty name rather than an error.
func (a *Adapter) Resident(row *repository.ResidentRow, buildings []*repository.BuildingRow) model.Resident {
	return model.Resident{
		ID:        a.ToLocalID(row.ID),
		Name:      row.Name,
		Apartment: row.Apartment,
		Block:     row.Block.String,
		Phone:     row.Phone,
		Building:  buildingName(row.BuildingID, buildings),
		Active:    row.Active,
	}
}

// Residents shapes a list of rows. When the building list is empty the
// result is empty too: a resident list rendered without its building
// join would be stale, not merely incomplete.
func (a *Adapter) Residents(rows []*repository.ResidentRow, buildings []*repository.BuildingRow) []model.Resident {
	if len(buildings) == 0 {
		return []model.Resident{}
	}
	out := make([]model.Resident, 0, len(rows))
	for _, row := range rows {
		out = append(out, a.Resident(row, buildings))
	}
	return out
}

// Employee shapes a funcionarios row. The password hash never crosses
// into the API entity.
func (a *Adapter) Employee(row *repository.EmployeeRow, buildings []*repository.BuildingRow) model.Employee {
	return model.Employee{
		ID:       a.ToLocalID(row.ID),
		Name:     row.Name,
		CPF:      row.CPF,
		Role:     row.Role,
		Building: buildingName(row.BuildingID, buildings),
		Active:   row.Active,
	}
}

// Employees shapes a list of rows with the same empty-buildings rule as
// Residents.
func (a *Adapter) Employees(rows []*repository.EmployeeRow, buildings []*repository.BuildingRow) []model.Employee {
	if len(buildings) == 0 {
		return []model.Employee{}
	}
	out := make([]model.Employee, 0, len(rows))
	for _, row := range rows {
		out = append(out, a.Employee(row, buildings))
	}
	return out
}

// Delivery shapes a joined entregas row into the API entity, translating
// the stored status vocabulary.
func (a *Adapter) Delivery(d *repository.DeliveryDetail) model.Delivery {
	out := model.Delivery{
		ID:          a.ToLocalID(d.ID),
		Persist:     model.Persisted(d.ID),
		Code:        d.Code,
		ResidentID:  a.ToLocalID(d.ResidentID),
		EmployeeID:  a.ToLocalID(d.EmployeeID),
		Status:      statusToModel(d.Status),
		ReceivedAt:  d.ReceivedAt,
		PhotoURL:    d.PhotoURL.String,
		Observation: d.Observation.String,
	}
	if d.PickedUpAt.Valid {
		t := d.PickedUpAt.Time
		out.PickedUpAt = &t
	}
	if d.PickupPerson.Valid {
		out.PickupPerson = d.PickupPerson.String
	}
	return out
}

// statusToModel maps the stored enum to the API vocabulary. Unknown
// values fall back to pending so a schema addition degrades visibly
// instead of dropping rows. Cancelled stays distinct: the system this
// replaces folded cancelled into pending, which made cancelled packages
// reappear as actionable pickups.
func statusToModel(db string) model.DeliveryStatus {
	switch db {
	case repository.DBStatusPickedUp:
		return model.StatusPickedUp
	case repository.DBStatusCancelled:
		return model.StatusCancelled
	default:
		return model.StatusPending
	}
}

func buildingName(buildingID string, buildings []*repository.BuildingRow) string {
	for _, b := range buildings {
		if b.ID == buildingID {
			return b.Name
		}
	}
	return ""
}
