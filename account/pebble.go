package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/market"
)

var pebbleAccountPrefix = []byte("acct/")

type pebbleAccount struct {
	ID        string          `json:"id"`
	Cash      decimal.Decimal `json:"cash"`
	CreatedAt time.Time       `json:"created_at"`
}

// Pebble is a Store on a shared Pebble database. mu serializes every
// read-modify-write so ApplyDelta is atomic within the process.
type Pebble struct {
	mu sync.Mutex
	db *pebble.DB
}

func NewPebble(db *pebble.DB) *Pebble {
	return &Pebble{db: db}
}

func accountKey(id string) []byte {
	return append(append([]byte(nil), pebbleAccountPrefix...), id...)
}

func (p *Pebble) load(id string) (Account, error) {
	data, closer, err := p.db.Get(accountKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Account{}, notFound(id)
	}
	if err != nil {
		return Account{}, storageErr("get", id, err)
	}
	defer closer.Close()

	var a pebbleAccount
	if err := json.Unmarshal(data, &a); err != nil {
		return Account{}, storageErr("decode", id, err)
	}
	return Account{ID: a.ID, Cash: a.Cash, CreatedAt: a.CreatedAt.UTC()}, nil
}

func (p *Pebble) save(acct Account) error {
	data, err := json.Marshal(pebbleAccount{ID: acct.ID, Cash: acct.Cash, CreatedAt: acct.CreatedAt})
	if err != nil {
		return storageErr("encode", acct.ID, err)
	}
	if err := p.db.Set(accountKey(acct.ID), data, pebble.Sync); err != nil {
		return storageErr("save", acct.ID, err)
	}
	return nil
}

func (p *Pebble) Open(ctx context.Context, id string, opening decimal.Decimal) (Account, error) {
	if err := checkOpen(id, opening); err != nil {
		return Account{}, err
	}
	if err := ctx.Err(); err != nil {
		return Account{}, storageErr("open", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.load(id)
	switch {
	case err == nil:
		return Account{}, fmt.Errorf("account %s: %w", id, market.ErrAccountExists)
	case !errors.Is(err, market.ErrAccountNotFound):
		return Account{}, err
	}

	acct := Account{ID: id, Cash: opening, CreatedAt: time.Now().UTC()}
	if err := p.save(acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (p *Pebble) Get(ctx context.Context, id string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, storageErr("get", id, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(id)
}

func (p *Pebble) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	acct, err := p.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Cash, nil
}

func (p *Pebble) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, storageErr("apply", id, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, err := p.load(id)
	if err != nil {
		return decimal.Zero, err
	}
	next, err := applyDelta(id, acct.Cash, delta)
	if err != nil {
		return acct.Cash, err
	}
	acct.Cash = next
	if err := p.save(acct); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}
