package identity

import (
	"database/sql"

	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/utils"
)

// Reverse shapers: API entities plus resolved native foreign keys back
// into insertable rows. Free-text labels are normalized here so every
// write path stores the same casing.

// ResidentInsert builds a moradores row for the given building.
func ResidentInsert(m model.Resident, buildingID string) *repository.ResidentRow {
	row := &repository.ResidentRow{
		BuildingID: buildingID,
		Name:       utils.TitleCase(m.Name),
		Apartment:  m.Apartment,
		Phone:      m.Phone,
		Active:     m.Active,
	}
	if block := utils.NormalizeBlock(m.Block); block != "" {
		row.Block = sql.NullString{String: block, Valid: true}
	}
	return row
}

// EmployeeInsert builds a funcionarios row. senhaHash is the bcrypt hash
// to store; pass the hash of the default password when the form left the
// field blank.
func EmployeeInsert(e model.Employee, senhaHash, buildingID string) *repository.EmployeeRow {
	return &repository.EmployeeRow{
		BuildingID: buildingID,
		Name:       utils.TitleCase(e.Name),
		CPF:        e.CPF,
		Senha:      senhaHash,
		Role:       e.Role,
		Active:     e.Active,
	}
}

// BuildingInsert builds a condominios row.
func BuildingInsert(b model.Building) *repository.BuildingRow {
	row := &repository.BuildingRow{
		Name:   utils.TitleCase(b.Name),
		Street: b.Address.Street,
		City:   b.Address.City,
		State:  b.Address.State,
		Zip:    b.Address.Zip,
		Active: true,
	}
	if b.WebhookURL != "" {
		row.WebhookURL = sql.NullString{String: b.WebhookURL, Valid: true}
	}
	return row
}

// DeliveryInsert builds an entregas row from the retrieval code and the
// resolved native foreign keys.
func DeliveryInsert(code, residentID, employeeID, buildingID, photoURL, observation string, messageSent bool) *repository.DeliveryRow {
	row := &repository.DeliveryRow{
		Code:        code,
		ResidentID:  residentID,
		EmployeeID:  employeeID,
		BuildingID:  buildingID,
		MessageSent: messageSent,
	}
	if photoURL != "" {
		row.PhotoURL = sql.NullString{String: photoURL, Valid: true}
	}
	if observation != "" {
		row.Observation = sql.NullString{String: observation, Valid: true}
	}
	return row
}
