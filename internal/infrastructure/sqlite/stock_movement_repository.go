package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, item_id, type, quantity, previous_stock, new_stock, unit_cost, reason, notes, reference,
	supplier_id, patient_id, prescription_id, appointment_id, performed_by, idempotency_key, request_hash,
	transaction_date, created_at`

// StockMovementRepo libro de movimientos sobre SQLite. Los triggers del esquema rechazan UPDATE y DELETE.
type StockMovementRepo struct {
	q Querier
}

func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row rowScanner) (*entity.StockMovement, error) {
	var (
		m              entity.StockMovement
		typ            string
		key            sql.NullString
		txDate, create string
	)
	err := row.Scan(
		&m.ID, &m.ItemID, &typ, &m.Quantity, &m.PreviousStock, &m.NewStock, &m.UnitCost, &m.Reason, &m.Notes,
		&m.Reference, &m.SupplierID, &m.PatientID, &m.PrescriptionID, &m.AppointmentID, &m.PerformedBy, &key,
		&m.RequestHash, &txDate, &create,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.IdempotencyKey = key.String
	if m.TransactionDate, err = parseTime(txDate); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(create); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMovements(rows *sql.Rows) ([]*entity.StockMovement, error) {
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

func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `) VALUES (` + placeholders(19) + `)`
	_, err := r.q.ExecContext(ctx, query,
		m.ID, m.ItemID, string(m.Type), m.Quantity, m.PreviousStock, m.NewStock, m.UnitCost, m.Reason, m.Notes,
		m.Reference, m.SupplierID, m.PatientID, m.PrescriptionID, m.AppointmentID, m.PerformedBy,
		nullIfEmpty(m.IdempotencyKey), m.RequestHash, formatTime(m.TransactionDate), formatTime(m.CreatedAt),
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
	m, err := scanMovement(r.q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *StockMovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	if key == "" {
		return nil, nil
	}
	return r.getOne(ctx, "idempotency_key = ?", key)
}

// List más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ItemID != "" {
		conds = append(conds, "item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.PerformedBy != "" {
		conds = append(conds, "performed_by = ?")
		args = append(args, filter.PerformedBy)
	}
	if filter.From != nil {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, formatTime(*filter.To))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	out, err := scanMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByItem ascendente por seq (orden de registro).
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE item_id = ?
		  AND (? IS NULL OR transaction_date >= ?)
		  AND (? IS NULL OR transaction_date <= ?)
		ORDER BY seq`
	f, t := nullTime(from), nullTime(to)
	rows, err := r.q.QueryContext(ctx, query, itemID, f, f, t, t)
	if err != nil {
		return nil, fmt.Errorf("list item movements: %w", err)
	}
	return scanMovements(rows)
}

func (r *StockMovementRepo) TotalsByItem(ctx context.Context, itemID string) (inventory.Totals, error) {
	inc, dec := typeArgs(entity.DirectionIncrease), typeArgs(entity.DirectionDecrease)
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN type IN (` + placeholders(len(inc)) + `) THEN quantity END), 0),
			COALESCE(SUM(CASE WHEN type IN (` + placeholders(len(dec)) + `) THEN quantity END), 0),
			COUNT(*)
		FROM stock_movements WHERE item_id = ?`
	args := append(append(inc, dec...), itemID)
	var t inventory.Totals
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&t.Increase, &t.Decrease, &t.Count); err != nil {
		return inventory.Totals{}, fmt.Errorf("totals by item: %w", err)
	}
	return t, nil
}

func (r *StockMovementRepo) CountByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements WHERE item_id = ?`, itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count item movements: %w", err)
	}
	return n, nil
}

func (r *StockMovementRepo) SumDecrease(ctx context.Context, itemID string, from, to time.Time) (int64, error) {
	dec := typeArgs(entity.DirectionDecrease)
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_movements
		WHERE item_id = ? AND type IN (` + placeholders(len(dec)) + `) AND transaction_date BETWEEN ? AND ?`
	args := append([]any{itemID}, dec...)
	args = append(args, formatTime(from), formatTime(to))
	var sum int64
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum decrease: %w", err)
	}
	return sum, nil
}

// typeArgs tipos con el sentido indicado, listos para un IN (?, ...).
func typeArgs(d entity.Direction) []any {
	out := make([]any, 0, len(entity.MovementTypes))
	for _, t := range entity.MovementTypes {
		if t.Direction() == d {
			out = append(out, string(t))
		}
	}
	return out
}
