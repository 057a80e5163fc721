package model

// Building is a condominium as consumed by the dashboard. ID is the
// process-local sequential id assigned by the identity adapter; the
// backend row id never leaves the server.
//
// WebhookURL, when set, overrides the default notification endpoint for
// every message sent to this building's residents.
type Building struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Address    Address `json:"address"`
	WebhookURL string  `json:"webhook_url,omitempty"`
}

// Address is the postal address of a building.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Resident lives in an apartment of a building. Building is the
// denormalized building name, resolved by the identity adapter when the
// row is shaped; it is not a foreign key.
type Resident struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Apartment string `json:"apartment"`
	Block     string `json:"block"`
	Phone     string `json:"phone"`
	Building  string `json:"building"`
	Active    bool   `json:"active"`
}

// Staff roles. Porteiro works the front desk, sindico manages one
// building, superadmin manages everything.
const (
	RolePorteiro   = "porteiro"
	RoleSindico    = "sindico"
	RoleSuperadmin = "superadmin"
)

// Employee is a staff member. CPF is the national id used as the login
// name. Building is denormalized like Resident.Building.
type Employee struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Role     string `json:"role"`
	Building string `json:"building"`
	Active   bool   `json:"active"`
}
