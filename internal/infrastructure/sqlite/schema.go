package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Fechas en TEXT con formato fijo (ver formatTime) y montos en TEXT para no pasar por REAL.
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
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id            TEXT PRIMARY KEY,
    sku           TEXT NOT NULL,
    barcode       TEXT,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL CHECK (category IN
                  ('medication', 'supplies', 'equipment', 'consumables', 'laboratory', 'surgical', 'other')),
    current_stock INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
    minimum_stock INTEGER NOT NULL DEFAULT 0 CHECK (minimum_stock >= 0),
    maximum_stock INTEGER NOT NULL DEFAULT 0 CHECK (maximum_stock >= 0),
    unit_cost     TEXT NOT NULL DEFAULT '0',
    unit_price    TEXT NOT NULL DEFAULT '0',
    unit_measure  TEXT NOT NULL DEFAULT 'unidad',
    supplier_id   TEXT REFERENCES suppliers(id),
    expiry_date   TEXT,
    batch_number  TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'discontinued')),
    version       INTEGER NOT NULL DEFAULT 1,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_sku ON items (lower(sku));
CREATE UNIQUE INDEX IF NOT EXISTS idx_items_barcode ON items (barcode) WHERE barcode IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_items_expiry ON items (expiry_date) WHERE expiry_date IS NOT NULL;

CREATE TABLE IF NOT EXISTS stock_movements (
    seq              INTEGER PRIMARY KEY AUTOINCREMENT,
    id               TEXT NOT NULL UNIQUE,
    item_id          TEXT NOT NULL REFERENCES items(id) ON DELETE RESTRICT,
    type             TEXT NOT NULL CHECK (type IN
                     ('IN', 'OUT', 'ADJUSTMENT', 'TRANSFER', 'EXPIRED', 'DAMAGED', 'RETURN')),
    quantity         INTEGER NOT NULL CHECK (quantity > 0),
    previous_stock   INTEGER NOT NULL CHECK (previous_stock >= 0),
    new_stock        INTEGER NOT NULL CHECK (new_stock >= 0),
    unit_cost        TEXT NOT NULL DEFAULT '0',
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
    transaction_date TEXT NOT NULL,
    created_at       TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_movements_idempotency
    ON stock_movements (idempotency_key) WHERE idempotency_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_stock_movements_item_seq ON stock_movements (item_id, seq);
CREATE INDEX IF NOT EXISTS idx_stock_movements_tx_date ON stock_movements (transaction_date);

CREATE TRIGGER IF NOT EXISTS trg_stock_movements_no_update
    BEFORE UPDATE ON stock_movements
BEGIN
    SELECT RAISE(ABORT, 'stock_movements es de solo inserción');
END;

CREATE TRIGGER IF NOT EXISTS trg_stock_movements_no_delete
    BEFORE DELETE ON stock_movements
BEGIN
    SELECT RAISE(ABORT, 'stock_movements es de solo inserción');
END;
`

// migrations sentencias aplicadas en orden después del esquema. Cada una debe ser idempotente.
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

// Migrate crea o actualiza el esquema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running schema: %w", err)
	}
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
