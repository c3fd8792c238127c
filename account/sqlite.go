package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/market"
)

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	cash TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// maxCASAttempts bounds the compare-and-set loop in ApplyDelta.
const maxCASAttempts = 3

// SQLite is a Store on a shared *sql.DB.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, storageErr("schema", "", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Open(ctx context.Context, id string, opening decimal.Decimal) (Account, error) {
	if err := checkOpen(id, opening); err != nil {
		return Account{}, err
	}
	acct := Account{ID: id, Cash: opening, CreatedAt: time.Now().UTC()}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, cash, created_at) VALUES (?, ?, ?)`,
		acct.ID, acct.Cash.String(), acct.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, fmt.Errorf("account %s: %w", id, market.ErrAccountExists)
		}
		return Account{}, storageErr("open", id, err)
	}
	return acct, nil
}

// isUniqueViolation matches the constraint message both drivers produce.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAccount(ctx context.Context, q queryer, id string) (Account, string, error) {
	var (
		acct    Account
		cash    string
		created int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, cash, created_at FROM accounts WHERE id = ?`, id).
		Scan(&acct.ID, &cash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, "", notFound(id)
	}
	if err != nil {
		return Account{}, "", storageErr("get", id, err)
	}
	d, err := decimal.NewFromString(cash)
	if err != nil {
		return Account{}, "", storageErr("decode", id, err)
	}
	acct.Cash = d
	acct.CreatedAt = time.Unix(0, created).UTC()
	return acct, cash, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Account, error) {
	acct, _, err := getAccount(ctx, s.db, id)
	return acct, err
}

func (s *SQLite) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	acct, _, err := getAccount(ctx, s.db, id)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Cash, nil
}

// ApplyDelta reads the balance and writes it back only if the stored text
// is unchanged, retrying a bounded number of times on a lost race.
func (s *SQLite) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		next, done, err := s.tryApply(ctx, id, delta)
		if err != nil || done {
			return next, err
		}
	}
	return decimal.Zero, storageErr("apply", id, errors.New("balance changed concurrently"))
}

func (s *SQLite) tryApply(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, false, storageErr("begin", id, err)
	}
	defer tx.Rollback()

	acct, raw, err := getAccount(ctx, tx, id)
	if err != nil {
		return decimal.Zero, false, err
	}
	next, err := applyDelta(id, acct.Cash, delta)
	if err != nil {
		return acct.Cash, false, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET cash = ? WHERE id = ? AND cash = ?`,
		next.String(), id, raw)
	if err != nil {
		return decimal.Zero, false, storageErr("update", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return decimal.Zero, false, storageErr("update", id, err)
	}
	if n != 1 {
		return decimal.Zero, false, nil
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, false, storageErr("commit", id, err)
	}
	return next, true, nil
}
