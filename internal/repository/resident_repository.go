package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ResidentRow is a resident row as stored in the moradores table.
type ResidentRow struct {
	ID         string
	BuildingID string
	Name       string
	Apartment  string
	Block      sql.NullString
	Phone      string
	Active     bool
}

// ResidentRepo encapsulates all database queries related to residents.
type ResidentRepo struct {
	db *sql.DB
}

// NewResidentRepo constructs a ResidentRepo with the provided DB handle.
func NewResidentRepo(db *sql.DB) *ResidentRepo {
	return &ResidentRepo{db: db}
}

const residentCols = "id, condominio_id, nome, apartamento, bloco, telefone, ativo"

func scanResident(s interface{ Scan(...any) error }) (*ResidentRow, error) {
	m := new(ResidentRow)
	if err := s.Scan(&m.ID, &m.BuildingID, &m.Name, &m.Apartment, &m.Block, &m.Phone, &m.Active); err != nil {
		return nil, err
	}
	return m, nil
}

// ListActive returns all active residents ordered by name.
func (r *ResidentRepo) ListActive(ctx context.Context) ([]*ResidentRow, error) {
	const q = `SELECT ` + residentCols + ` FROM moradores WHERE ativo = 1 ORDER BY nome`
	return r.list(ctx, q)
}

// ListByBuilding returns the active residents of one building ordered by name.
func (r *ResidentRepo) ListByBuilding(ctx context.Context, buildingID string) ([]*ResidentRow, error) {
	const q = `SELECT ` + residentCols + ` FROM moradores
	           WHERE condominio_id = ? AND ativo = 1 ORDER BY nome`
	return r.list(ctx, q, buildingID)
}

func (r *ResidentRepo) list(ctx context.Context, q string, args ...any) ([]*ResidentRow, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ResidentRow
	for rows.Next() {
		m, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one resident by UUID regardless of the active flag.
func (r *ResidentRepo) GetByID(ctx context.Context, id string) (*ResidentRow, error) {
	const q = `SELECT ` + residentCols + ` FROM moradores WHERE id = ?`
	m, err := scanResident(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResidentNotFound
		}
		return nil, err
	}
	return m, nil
}

// Create inserts a new resident and re-reads the row.
func (r *ResidentRepo) Create(ctx context.Context, m *ResidentRow) error {
	m.ID = uuid.NewString()
	const q = `INSERT INTO moradores (id, condominio_id, nome, apartamento, bloco, telefone, ativo)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, m.ID, m.BuildingID, m.Name, m.Apartment, m.Block, m.Phone, m.Active); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

// Update rewrites the editable fields of a resident.
func (r *ResidentRepo) Update(ctx context.Context, m *ResidentRow) error {
	const q = `UPDATE moradores
	           SET condominio_id = ?, nome = ?, apartamento = ?, bloco = ?, telefone = ?, ativo = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.BuildingID, m.Name, m.Apartment, m.Block, m.Phone, m.Active, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrResidentNotFound
	}
	return nil
}

// Deactivate soft-deletes a resident.
func (r *ResidentRepo) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE moradores SET ativo = 0 WHERE id = ? AND ativo = 1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrResidentNotFound
	}
	return nil
}
