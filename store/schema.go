// store/schema.go
package store

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	account_type TEXT NOT NULL,
	currency TEXT NOT NULL,
	balance TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS instruments (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	instrument_type TEXT NOT NULL,
	base_currency TEXT NOT NULL,
	quote_currency TEXT NOT NULL,
	min_quantity TEXT NOT NULL,
	max_quantity TEXT NOT NULL,
	tick_size TEXT NOT NULL,
	is_active INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	instrument_id TEXT NOT NULL REFERENCES instruments(id),
	order_type TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT,
	stop_price TEXT,
	status TEXT NOT NULL,
	filled_quantity TEXT NOT NULL,
	average_fill_price TEXT NOT NULL,
	commission TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	instrument_id TEXT NOT NULL REFERENCES instruments(id),
	quantity TEXT NOT NULL,
	average_price TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	unrealized_pnl TEXT NOT NULL,
	revalued_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(account_id, instrument_id)
);

CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES orders(id),
	account_id TEXT NOT NULL REFERENCES accounts(id),
	instrument_id TEXT NOT NULL REFERENCES instruments(id),
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	commission TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id);
CREATE INDEX IF NOT EXISTS idx_trades_order ON trades(order_id);

CREATE TABLE IF NOT EXISTS candles (
	symbol TEXT NOT NULL,
	interval TEXT NOT NULL,
	source TEXT NOT NULL,
	ts DATETIME NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, interval, source, ts)
);
`
