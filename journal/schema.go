package journal

// Schema is the SQLite ledger. seq fixes insertion order; rows are never
// updated or deleted. executed_at is unix nanoseconds so both drivers agree
// on its encoding.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	trade_id TEXT NOT NULL UNIQUE,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity != 0),
	price TEXT NOT NULL,
	executed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account_symbol ON trades(account_id, symbol);

CREATE TRIGGER IF NOT EXISTS trades_no_update
BEFORE UPDATE ON trades
BEGIN
	SELECT RAISE(ABORT, 'trades are append-only');
END;

CREATE TRIGGER IF NOT EXISTS trades_no_delete
BEFORE DELETE ON trades
BEGIN
	SELECT RAISE(ABORT, 'trades are append-only');
END;
`
