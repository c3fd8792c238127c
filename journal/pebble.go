package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/pkg/id"
)

// Key layout:
//
//	ledger/seq                          -> last assigned seq (uint64 BE)
//	ledger/t/<account>\x00<seq uint64>  -> JSON record
var (
	pebbleSeqKey      = []byte("ledger/seq")
	pebbleTradePrefix = []byte("ledger/t/")
)

type pebbleTrade struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	AccountID string          `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Time      time.Time       `json:"time"`
}

// Pebble is a Ledger on a shared Pebble database. The caller owns the
// handle.
type Pebble struct {
	mu  sync.Mutex
	db  *pebble.DB
	seq int64
}

// NewPebble loads the sequence counter from db.
func NewPebble(db *pebble.DB) (*Pebble, error) {
	p := &Pebble{db: db}
	val, closer, err := db.Get(pebbleSeqKey)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
	case err != nil:
		return nil, storageErr("load seq", err)
	default:
		if len(val) == 8 {
			p.seq = int64(binary.BigEndian.Uint64(val))
		}
		closer.Close()
	}
	return p, nil
}

func accountPrefix(accountID string) []byte {
	k := make([]byte, 0, len(pebbleTradePrefix)+len(accountID)+1)
	k = append(k, pebbleTradePrefix...)
	k = append(k, accountID...)
	return append(k, 0)
}

func tradeKey(accountID string, seq int64) []byte {
	k := accountPrefix(accountID)
	return binary.BigEndian.AppendUint64(k, uint64(seq))
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (p *Pebble) Append(ctx context.Context, rec TradeRecord) (string, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	if strings.ContainsRune(rec.AccountID, 0) {
		return "", fmt.Errorf("journal append: account id contains NUL")
	}
	if err := ctx.Err(); err != nil {
		return "", storageErr("append", err)
	}
	if rec.ID == "" {
		rec.ID = id.New()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seq := p.seq + 1
	data, err := json.Marshal(pebbleTrade{
		ID:        rec.ID,
		Seq:       seq,
		AccountID: rec.AccountID,
		Symbol:    rec.Symbol,
		Quantity:  rec.Quantity,
		Price:     rec.Price,
		Time:      rec.Time.UTC(),
	})
	if err != nil {
		return "", storageErr("encode", err)
	}

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Set(tradeKey(rec.AccountID, seq), data, nil); err != nil {
		return "", storageErr("append", err)
	}
	if err := b.Set(pebbleSeqKey, binary.BigEndian.AppendUint64(nil, uint64(seq)), nil); err != nil {
		return "", storageErr("append", err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return "", storageErr("append", err)
	}

	p.seq = seq
	return rec.ID, nil
}

func (p *Pebble) QueryByAccount(ctx context.Context, accountID, symbol string) ([]TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("query", err)
	}
	prefix := accountPrefix(accountID)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer iter.Close()

	var out []TradeRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var t pebbleTrade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, storageErr("decode", err)
		}
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		out = append(out, TradeRecord{
			ID:        t.ID,
			Seq:       t.Seq,
			AccountID: t.AccountID,
			Symbol:    t.Symbol,
			Quantity:  t.Quantity,
			Price:     t.Price,
			Time:      t.Time.UTC(),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, storageErr("query", err)
	}
	return out, nil
}

func (p *Pebble) SumQuantityByAccount(ctx context.Context, accountID string) (map[string]int64, error) {
	recs, err := p.QueryByAccount(ctx, accountID, "")
	if err != nil {
		return nil, err
	}
	return Aggregate(recs), nil
}

func (p *Pebble) Close() error {
	return nil
}
