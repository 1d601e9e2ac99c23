package store

// schema mirrors the four source tables of the sales database for the local
// SQLite snapshot. Column names match production so the same queries run
// against either.
const schema = `
CREATE TABLE IF NOT EXISTS customer_master (
    bp_code TEXT PRIMARY KEY,
    bp_name TEXT NOT NULL,
    group_code TEXT,
    route TEXT,
    sales_manager TEXT
);

CREATE TABLE IF NOT EXISTS sales_per_client (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_code TEXT NOT NULL,
    customer_name TEXT NOT NULL,
    item_description TEXT NOT NULL,
    month TEXT NOT NULL,
    quantity REAL NOT NULL DEFAULT 0,
    sales_amt REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS customer_wise_sales (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_code TEXT NOT NULL,
    customer_name TEXT,
    month TEXT NOT NULL,
    total_ar_invoice REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS route_wise_sales (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    route TEXT NOT NULL,
    month TEXT NOT NULL,
    amount REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_spc_customer ON sales_per_client(customer_code);
CREATE INDEX IF NOT EXISTS idx_spc_item ON sales_per_client(item_description);
CREATE INDEX IF NOT EXISTS idx_cws_customer ON customer_wise_sales(customer_code);
CREATE INDEX IF NOT EXISTS idx_rws_route_month ON route_wise_sales(route, month);
CREATE INDEX IF NOT EXISTS idx_cm_group ON customer_master(group_code);
`

// Columns added after the first snapshot release, applied by CreateSchema to
// snapshots that predate them.
var addedColumns = []struct {
	table, column, decl string
}{
	{"customer_master", "sales_manager", "TEXT"},
}
