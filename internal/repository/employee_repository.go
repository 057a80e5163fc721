package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// EmployeeRow is a staff row as stored in the funcionarios table. Senha
// holds the bcrypt hash of the password, never the plain text.
type EmployeeRow struct {
	ID         string
	BuildingID string
	Name       string
	CPF        string
	Senha      string
	Role       string
	Active     bool
}

// EmployeeRepo encapsulates all database queries related to staff.
type EmployeeRepo struct {
	db *sql.DB
}

// NewEmployeeRepo constructs an EmployeeRepo with the provided DB handle.
func NewEmployeeRepo(db *sql.DB) *EmployeeRepo {
	return &EmployeeRepo{db: db}
}

const employeeCols = "id, condominio_id, nome, cpf, senha, cargo, ativo"

func scanEmployee(s interface{ Scan(...any) error }) (*EmployeeRow, error) {
	e := new(EmployeeRow)
	if err := s.Scan(&e.ID, &e.BuildingID, &e.Name, &e.CPF, &e.Senha, &e.Role, &e.Active); err != nil {
		return nil, err
	}
	return e, nil
}

// ListActive returns all active employees ordered by name.
func (r *EmployeeRepo) ListActive(ctx context.Context) ([]*EmployeeRow, error) {
	const q = `SELECT ` + employeeCols + ` FROM funcionarios WHERE ativo = 1 ORDER BY nome`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EmployeeRow
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one employee by UUID.
func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (*EmployeeRow, error) {
	const q = `SELECT ` + employeeCols + ` FROM funcionarios WHERE id = ?`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return e, nil
}

// GetByCPF fetches one employee by CPF. Used by login.
func (r *EmployeeRepo) GetByCPF(ctx context.Context, cpf string) (*EmployeeRow, error) {
	const q = `SELECT ` + employeeCols + ` FROM funcionarios WHERE cpf = ?`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, q, cpf))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return e, nil
}

// Create inserts a new employee. A duplicate CPF surfaces as
// ErrCPFExists (MySQL error 1062 on the unique index).
func (r *EmployeeRepo) Create(ctx context.Context, e *EmployeeRow) error {
	e.ID = uuid.NewString()
	const q = `INSERT INTO funcionarios (id, condominio_id, nome, cpf, senha, cargo, ativo)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, e.ID, e.BuildingID, e.Name, e.CPF, e.Senha, e.Role, e.Active); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrCPFExists
		}
		return err
	}
	got, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *got
	return nil
}

// Update rewrites the editable fields of an employee. The password hash
// is only touched when Senha is non-empty.
func (r *EmployeeRepo) Update(ctx context.Context, e *EmployeeRow) error {
	if e.Senha != "" {
		const q = `UPDATE funcionarios
		           SET condominio_id = ?, nome = ?, cpf = ?, senha = ?, cargo = ?, ativo = ?
		           WHERE id = ?`
		res, err := r.db.ExecContext(ctx, q, e.BuildingID, e.Name, e.CPF, e.Senha, e.Role, e.Active, e.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrEmployeeNotFound
		}
		return nil
	}
	const q = `UPDATE funcionarios
	           SET condominio_id = ?, nome = ?, cpf = ?, cargo = ?, ativo = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, e.BuildingID, e.Name, e.CPF, e.Role, e.Active, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// Deactivate soft-deletes an employee.
func (r *EmployeeRepo) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE funcionarios SET ativo = 0 WHERE id = ? AND ativo = 1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
