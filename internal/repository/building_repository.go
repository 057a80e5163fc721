package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// BuildingRow is a condominium row as stored in the condominios table.
// The ID is a server-generated UUID; the dashboard never sees it
// directly, only the small integer the identity adapter assigns.
type BuildingRow struct {
	ID         string
	Name       string
	Street     string
	City       string
	State      string
	Zip        string
	WebhookURL sql.NullString
	Active     bool
}

// BuildingRepo encapsulates all database queries related to buildings.
type BuildingRepo struct {
	db *sql.DB
}

// NewBuildingRepo constructs a BuildingRepo with the provided DB handle.
func NewBuildingRepo(db *sql.DB) *BuildingRepo {
	return &BuildingRepo{db: db}
}

// ListActive returns all active buildings ordered by name.
func (r *BuildingRepo) ListActive(ctx context.Context) ([]*BuildingRow, error) {
	const q = `SELECT id, nome, endereco, cidade, estado, cep, webhook_url, ativo
	           FROM condominios WHERE ativo = 1 ORDER BY nome`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*BuildingRow
	for rows.Next() {
		b := new(BuildingRow)
		if err := rows.Scan(&b.ID, &b.Name, &b.Street, &b.City, &b.State, &b.Zip, &b.WebhookURL, &b.Active); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a building by its UUID. ErrBuildingNotFound is
// returned when no row matches.
func (r *BuildingRepo) GetByID(ctx context.Context, id string) (*BuildingRow, error) {
	const q = `SELECT id, nome, endereco, cidade, estado, cep, webhook_url, ativo
	           FROM condominios WHERE id = ?`
	b := new(BuildingRow)
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.Name, &b.Street, &b.City, &b.State, &b.Zip, &b.WebhookURL, &b.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}
	return b, nil
}

// Create inserts a new building. The UUID is generated here; on success
// the row is re-read so callers receive server defaults.
func (r *BuildingRepo) Create(ctx context.Context, b *BuildingRow) error {
	b.ID = uuid.NewString()
	const q = `INSERT INTO condominios (id, nome, endereco, cidade, estado, cep, webhook_url, ativo)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
	if _, err := r.db.ExecContext(ctx, q, b.ID, b.Name, b.Street, b.City, b.State, b.Zip, b.WebhookURL); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// Update rewrites the editable fields of a building.
func (r *BuildingRepo) Update(ctx context.Context, b *BuildingRow) error {
	const q = `UPDATE condominios
	           SET nome = ?, endereco = ?, cidade = ?, estado = ?, cep = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, b.Name, b.Street, b.City, b.State, b.Zip, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBuildingNotFound
	}
	return nil
}

// UpdateWebhook sets or clears the per-building webhook override. An
// empty url stores NULL so the default endpoint applies again.
func (r *BuildingRepo) UpdateWebhook(ctx context.Context, id, url string) error {
	const q = `UPDATE condominios SET webhook_url = ? WHERE id = ?`
	var v sql.NullString
	if url != "" {
		v = sql.NullString{String: url, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, v, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBuildingNotFound
	}
	return nil
}

// Deactivate soft-deletes a building. Rows are never hard-deleted so
// historical deliveries keep their joins.
func (r *BuildingRepo) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE condominios SET ativo = 0 WHERE id = ? AND ativo = 1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBuildingNotFound
	}
	return nil
}
