package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Delivery status values as stored in the entregas table.
const (
	DBStatusPending   = "pendente"
	DBStatusPickedUp  = "retirada"
	DBStatusCancelled = "cancelada"
)

// DeliveryRow is a delivery row as stored in the entregas table.
type DeliveryRow struct {
	ID           string
	Code         string
	ResidentID   string
	EmployeeID   string
	BuildingID   string
	Status       string
	ReceivedAt   time.Time
	PickedUpAt   sql.NullTime
	PhotoURL     sql.NullString
	Observation  sql.NullString
	PickupPerson sql.NullString
	MessageSent  bool
	LastReminder sql.NullTime
}

// DeliveryDetail is a delivery row joined with its resident, employee
// and building. Every delivery fetch joins the three for display, so
// callers never chase foreign keys themselves.
type DeliveryDetail struct {
	DeliveryRow
	Resident ResidentRow
	Employee EmployeeRow
	Building BuildingRow
}

// DeliveryStats are the per-status counts for a building over a date range.
type DeliveryStats struct {
	Total     int
	Pending   int
	PickedUp  int
	Cancelled int
}

// DeliveryRepo encapsulates all database queries related to deliveries.
type DeliveryRepo struct {
	db *sql.DB
}

// NewDeliveryRepo constructs a DeliveryRepo with the provided DB handle.
func NewDeliveryRepo(db *sql.DB) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

const deliveryJoinCols = `
	e.id, e.codigo_retirada, e.morador_id, e.funcionario_id, e.condominio_id,
	e.status, e.data_entrega, e.data_retirada, e.foto_url, e.observacoes,
	e.descricao_retirada, e.mensagem_enviada, e.ultimo_lembrete_enviado,
	m.id, m.condominio_id, m.nome, m.apartamento, m.bloco, m.telefone, m.ativo,
	f.id, f.condominio_id, f.nome, f.cpf, f.senha, f.cargo, f.ativo,
	c.id, c.nome, c.endereco, c.cidade, c.estado, c.cep, c.webhook_url, c.ativo`

const deliveryJoin = `
	FROM entregas e
	JOIN moradores m ON m.id = e.morador_id
	JOIN funcionarios f ON f.id = e.funcionario_id
	JOIN condominios c ON c.id = e.condominio_id`

func scanDeliveryDetail(s interface{ Scan(...any) error }) (*DeliveryDetail, error) {
	d := new(DeliveryDetail)
	err := s.Scan(
		&d.ID, &d.Code, &d.ResidentID, &d.EmployeeID, &d.BuildingID,
		&d.Status, &d.ReceivedAt, &d.PickedUpAt, &d.PhotoURL, &d.Observation,
		&d.PickupPerson, &d.MessageSent, &d.LastReminder,
		&d.Resident.ID, &d.Resident.BuildingID, &d.Resident.Name, &d.Resident.Apartment,
		&d.Resident.Block, &d.Resident.Phone, &d.Resident.Active,
		&d.Employee.ID, &d.Employee.BuildingID, &d.Employee.Name, &d.Employee.CPF,
		&d.Employee.Senha, &d.Employee.Role, &d.Employee.Active,
		&d.Building.ID, &d.Building.Name, &d.Building.Street, &d.Building.City,
		&d.Building.State, &d.Building.Zip, &d.Building.WebhookURL, &d.Building.Active,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeliveryRepo) listDetailed(ctx context.Context, q string, args ...any) ([]*DeliveryDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DeliveryDetail
	for rows.Next() {
		d, err := scanDeliveryDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus returns deliveries with the given status, newest first,
// optionally scoped to one building (empty id means all buildings).
func (r *DeliveryRepo) ListByStatus(ctx context.Context, status, buildingID string) ([]*DeliveryDetail, error) {
	if buildingID != "" {
		const q = `SELECT` + deliveryJoinCols + deliveryJoin + `
			WHERE e.status = ? AND e.condominio_id = ?
			ORDER BY e.data_entrega DESC`
		return r.listDetailed(ctx, q, status, buildingID)
	}
	const q = `SELECT` + deliveryJoinCols + deliveryJoin + `
		WHERE e.status = ?
		ORDER BY e.data_entrega DESC`
	return r.listDetailed(ctx, q, status)
}

// ListPending returns pending deliveries, newest first, optionally
// scoped to one building.
func (r *DeliveryRepo) ListPending(ctx context.Context, buildingID string) ([]*DeliveryDetail, error) {
	return r.ListByStatus(ctx, DBStatusPending, buildingID)
}

// ListAll returns every delivery, newest first, optionally scoped to one
// building. Used by the report screens.
func (r *DeliveryRepo) ListAll(ctx context.Context, buildingID string) ([]*DeliveryDetail, error) {
	if buildingID != "" {
		const q = `SELECT` + deliveryJoinCols + deliveryJoin + `
			WHERE e.condominio_id = ?
			ORDER BY e.data_entrega DESC`
		return r.listDetailed(ctx, q, buildingID)
	}
	const q = `SELECT` + deliveryJoinCols + deliveryJoin + `
		ORDER BY e.data_entrega DESC`
	return r.listDetailed(ctx, q)
}

// GetByID fetches one delivery with its joins.
func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*DeliveryDetail, error) {
	const q = `SELECT` + deliveryJoinCols + deliveryJoin + ` WHERE e.id = ?`
	d, err := scanDeliveryDetail(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return d, nil
}

// FindPendingByCode fetches the pending delivery carrying the given
// retrieval code. Picked-up and cancelled deliveries never match, which
// is what keeps the pending->picked-up transition one-way at lookup time.
func (r *DeliveryRepo) FindPendingByCode(ctx context.Context, code string) (*DeliveryDetail, error) {
	const q = `SELECT` + deliveryJoinCols + deliveryJoin + `
		WHERE e.codigo_retirada = ? AND e.status = 'pendente'`
	d, err := scanDeliveryDetail(r.db.QueryRowContext(ctx, q, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return d, nil
}

// CodeInUse reports whether a retrieval code is already carried by a
// pending delivery. The code generator retries on collisions so two
// concurrently pending deliveries never share a code.
func (r *DeliveryRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	const q = `SELECT COUNT(*) FROM entregas WHERE codigo_retirada = ? AND status = 'pendente'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new pending delivery and re-reads it with joins.
func (r *DeliveryRepo) Create(ctx context.Context, d *DeliveryRow) (*DeliveryDetail, error) {
	d.ID = uuid.NewString()
	const q = `INSERT INTO entregas
		(id, codigo_retirada, morador_id, funcionario_id, condominio_id, status,
		 data_entrega, foto_url, observacoes, mensagem_enviada)
		VALUES (?, ?, ?, ?, ?, 'pendente', NOW(), ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		d.ID, d.Code, d.ResidentID, d.EmployeeID, d.BuildingID,
		d.PhotoURL, d.Observation, d.MessageSent); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, d.ID)
}

// MarkPickedUp transitions a pending delivery to picked up, recording
// the server-side pickup timestamp and who collected it. The WHERE
// clause only matches pending rows, so a second confirmation (or a
// confirmation against a cancelled delivery) returns ErrNotPending and
// the status never moves backwards.
func (r *DeliveryRepo) MarkPickedUp(ctx context.Context, id, pickupPerson string) error {
	const q = `UPDATE entregas
	           SET status = 'retirada', data_retirada = NOW(), descricao_retirada = ?
	           WHERE id = ? AND status = 'pendente'`
	res, err := r.db.ExecContext(ctx, q, pickupPerson, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}
	return nil
}

// Cancel transitions a pending delivery to cancelled, keeping the reason
// in the observations column.
func (r *DeliveryRepo) Cancel(ctx context.Context, id, reason string) error {
	const q = `UPDATE entregas
	           SET status = 'cancelada', observacoes = ?
	           WHERE id = ? AND status = 'pendente'`
	res, err := r.db.ExecContext(ctx, q, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}
	return nil
}

// UpdateMessageSent flags whether the registration notification reached
// the webhook for this delivery.
func (r *DeliveryRepo) UpdateMessageSent(ctx context.Context, id string, sent bool) error {
	const q = `UPDATE entregas SET mensagem_enviada = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, sent, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// TouchReminder records that a reminder was sent for this delivery now.
func (r *DeliveryRepo) TouchReminder(ctx context.Context, id string) error {
	const q = `UPDATE entregas SET ultimo_lembrete_enviado = NOW() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// ListNeedingReminder returns pending deliveries received more than
// `hours` ago whose last reminder is either absent or older than the
// same cutoff.
func (r *DeliveryRepo) ListNeedingReminder(ctx context.Context, hours int) ([]*DeliveryDetail, error) {
	const q = `SELECT` + deliveryJoinCols + deliveryJoin + `
		WHERE e.status = 'pendente'
		  AND e.data_entrega < DATE_SUB(NOW(), INTERVAL ? HOUR)
		  AND (e.ultimo_lembrete_enviado IS NULL
		       OR e.ultimo_lembrete_enviado < DATE_SUB(NOW(), INTERVAL ? HOUR))
		ORDER BY e.data_entrega`
	return r.listDetailed(ctx, q, hours, hours)
}

// Stats counts deliveries per status for one building over an optional
// date range. Zero times widen the range to everything.
func (r *DeliveryRepo) Stats(ctx context.Context, buildingID string, from, to time.Time) (*DeliveryStats, error) {
	q := `SELECT status, COUNT(*) FROM entregas WHERE condominio_id = ?`
	args := []any{buildingID}
	if !from.IsZero() {
		q += ` AND data_entrega >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		q += ` AND data_entrega <= ?`
		args = append(args, to)
	}
	q += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st := new(DeliveryStats)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		st.Total += n
		switch status {
		case DBStatusPending:
			st.Pending = n
		case DBStatusPickedUp:
			st.PickedUp = n
		case DBStatusCancelled:
			st.Cancelled = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return st, nil
}
