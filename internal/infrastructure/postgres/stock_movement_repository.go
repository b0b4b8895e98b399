package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, item_id, type, quantity, previous_stock, new_stock, unit_cost, reason, notes, reference,
	supplier_id, patient_id, prescription_id, appointment_id, performed_by, idempotency_key, request_hash,
	transaction_date, created_at`

// StockMovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT; un trigger
// rechaza UPDATE y DELETE sobre la tabla.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m   entity.StockMovement
		typ string
		key *string
	)
	err := row.Scan(
		&m.ID, &m.ItemID, &typ, &m.Quantity, &m.PreviousStock, &m.NewStock, &m.UnitCost, &m.Reason, &m.Notes,
		&m.Reference, &m.SupplierID, &m.PatientID, &m.PrescriptionID, &m.AppointmentID, &m.PerformedBy, &key,
		&m.RequestHash, &m.TransactionDate, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.IdempotencyKey = derefString(key)
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	out := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserta el movimiento. Una idempotency_key repetida devuelve ErrDuplicate.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ItemID, string(m.Type), m.Quantity, m.PreviousStock, m.NewStock, m.UnitCost, m.Reason, m.Notes,
		m.Reference, m.SupplierID, m.PatientID, m.PrescriptionID, m.AppointmentID, m.PerformedBy,
		nullIfEmpty(m.IdempotencyKey), m.RequestHash, m.TransactionDate, m.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isFKViolation(err):
			return domain.ErrNotFound
		case isCheckViolation(err):
			return domain.Invalid("movement", "el movimiento viola las restricciones del libro")
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

func (r *StockMovementRepo) getOne(ctx context.Context, where string, arg any) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *StockMovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	if key == "" {
		return nil, nil
	}
	return r.getOne(ctx, "idempotency_key = $1", key)
}

// List más recientes primero (orden de commit descendente).
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	where := " WHERE 1=1"
	args := make([]any, 0, 7)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.ItemID != "" {
		where += " AND item_id = " + next(filter.ItemID)
	}
	if filter.Type != "" {
		where += " AND type = " + next(string(filter.Type))
	}
	if filter.PerformedBy != "" {
		where += " AND performed_by = " + next(filter.PerformedBy)
	}
	if filter.From != nil {
		where += " AND transaction_date >= " + next(*filter.From)
	}
	if filter.To != nil {
		where += " AND transaction_date <= " + next(*filter.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY seq DESC`
	if limit > 0 {
		query += " LIMIT " + next(limit) + " OFFSET " + next(offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	out, err := collectMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByItem historial ascendente por seq: bajo el candado del ítem, seq es el orden de registro.
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE item_id = $1
		  AND ($2::timestamptz IS NULL OR transaction_date >= $2)
		  AND ($3::timestamptz IS NULL OR transaction_date <= $3)
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, itemID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list item movements: %w", err)
	}
	return collectMovements(rows)
}

// TotalsByItem Σ entradas y Σ salidas del libro completo del ítem.
func (r *StockMovementRepo) TotalsByItem(ctx context.Context, itemID string) (inventory.Totals, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE type = ANY($2)), 0)::bigint,
			COALESCE(SUM(quantity) FILTER (WHERE type = ANY($3)), 0)::bigint,
			COUNT(*)
		FROM stock_movements WHERE item_id = $1`
	var t inventory.Totals
	err := r.q.QueryRow(ctx, query, itemID, typeNames(entity.DirectionIncrease), typeNames(entity.DirectionDecrease)).
		Scan(&t.Increase, &t.Decrease, &t.Count)
	if err != nil {
		return inventory.Totals{}, fmt.Errorf("totals by item: %w", err)
	}
	return t, nil
}

func (r *StockMovementRepo) CountByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE item_id = $1`, itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count item movements: %w", err)
	}
	return n, nil
}

// SumDecrease Σ cantidad de salidas (OUT, TRANSFER, EXPIRED, DAMAGED) en [from, to].
func (r *StockMovementRepo) SumDecrease(ctx context.Context, itemID string, from, to time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)::bigint FROM stock_movements
		WHERE item_id = $1 AND type = ANY($2) AND transaction_date BETWEEN $3 AND $4`
	var sum int64
	if err := r.q.QueryRow(ctx, query, itemID, typeNames(entity.DirectionDecrease), from, to).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum decrease: %w", err)
	}
	return sum, nil
}

// typeNames tipos con el sentido indicado, como []string para ANY($n).
func typeNames(d entity.Direction) []string {
	out := make([]string, 0, len(entity.MovementTypes))
	for _, t := range entity.MovementTypes {
		if t.Direction() == d {
			out = append(out, string(t))
		}
	}
	return out
}
