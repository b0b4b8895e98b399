package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema esquema completo del libro. Idempotente: se puede ejecutar en cada arranque.
const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    contact_name TEXT NOT NULL DEFAULT '',
    email        TEXT NOT NULL DEFAULT '',
    phone        TEXT NOT NULL DEFAULT '',
    address      TEXT NOT NULL DEFAULT '',
    tax_id       TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
    id            TEXT PRIMARY KEY,
    sku           TEXT NOT NULL,
    barcode       TEXT,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL CHECK (category IN
                  ('medication', 'supplies', 'equipment', 'consumables', 'laboratory', 'surgical', 'other')),
    current_stock BIGINT NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
    minimum_stock BIGINT NOT NULL DEFAULT 0 CHECK (minimum_stock >= 0),
    maximum_stock BIGINT NOT NULL DEFAULT 0 CHECK (maximum_stock >= 0),
    unit_cost     NUMERIC(18, 4) NOT NULL DEFAULT 0,
    unit_price    NUMERIC(18, 4) NOT NULL DEFAULT 0,
    unit_measure  TEXT NOT NULL DEFAULT 'unidad',
    supplier_id   TEXT REFERENCES suppliers(id),
    expiry_date   TIMESTAMPTZ,
    batch_number  TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'discontinued')),
    version       BIGINT NOT NULL DEFAULT 1,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_sku ON items (lower(sku));
CREATE UNIQUE INDEX IF NOT EXISTS idx_items_barcode ON items (barcode) WHERE barcode IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_items_expiry ON items (expiry_date) WHERE expiry_date IS NOT NULL;

CREATE TABLE IF NOT EXISTS stock_movements (
    seq              BIGSERIAL NOT NULL,
    id               TEXT PRIMARY KEY,
    item_id          TEXT NOT NULL REFERENCES items(id) ON DELETE RESTRICT,
    type             TEXT NOT NULL CHECK (type IN
                     ('IN', 'OUT', 'ADJUSTMENT', 'TRANSFER', 'EXPIRED', 'DAMAGED', 'RETURN')),
    quantity         BIGINT NOT NULL CHECK (quantity > 0),
    previous_stock   BIGINT NOT NULL CHECK (previous_stock >= 0),
    new_stock        BIGINT NOT NULL CHECK (new_stock >= 0),
    unit_cost        NUMERIC(18, 4) NOT NULL DEFAULT 0,
    reason           TEXT NOT NULL DEFAULT '',
    notes            TEXT NOT NULL DEFAULT '',
    reference        TEXT NOT NULL DEFAULT '',
    supplier_id      TEXT,
    patient_id       TEXT,
    prescription_id  TEXT,
    appointment_id   TEXT,
    performed_by     TEXT NOT NULL,
    idempotency_key  TEXT,
    request_hash     TEXT NOT NULL DEFAULT '',
    transaction_date TIMESTAMPTZ NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_movements_idempotency
    ON stock_movements (idempotency_key) WHERE idempotency_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_stock_movements_item_seq ON stock_movements (item_id, seq);
CREATE INDEX IF NOT EXISTS idx_stock_movements_tx_date ON stock_movements (transaction_date);

CREATE OR REPLACE FUNCTION stock_movements_append_only() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'stock_movements es de solo inserción';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_stock_movements_append_only ON stock_movements;
CREATE TRIGGER trg_stock_movements_append_only
    BEFORE UPDATE OR DELETE ON stock_movements
    FOR EACH ROW EXECUTE FUNCTION stock_movements_append_only();
`

// migrations sentencias aplicadas en orden después del esquema. Cada una debe ser idempotente.
// Agregar nuevas al final.
var migrations = []string{
	// 1: listados de ítems por proveedor
	`CREATE INDEX IF NOT EXISTS idx_items_supplier ON items (supplier_id) WHERE supplier_id IS NOT NULL`,
	// 2-8: filtros de catálogo, movimientos por tipo y búsqueda de proveedores
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items (category)`,
	`CREATE INDEX IF NOT EXISTS idx_items_status ON items (status)`,
	`CREATE INDEX IF NOT EXISTS idx_items_current_stock ON items (current_stock)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_type ON stock_movements (type)`,
	`CREATE INDEX IF NOT EXISTS idx_suppliers_email ON suppliers (email)`,
	`CREATE INDEX IF NOT EXISTS idx_suppliers_status ON suppliers (status)`,
	`CREATE INDEX IF NOT EXISTS idx_suppliers_name ON suppliers (name)`,
}

// Migrate crea o actualiza el esquema. Se serializa con un advisory lock para que varias
// réplicas puedan arrancar a la vez.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	const lockID = 7_340_221
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	defer func() { _, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID) }()

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("running schema: %w", err)
	}
	for i, m := range migrations {
		if _, err := conn.Exec(ctx, m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
