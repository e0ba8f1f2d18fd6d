package storage

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
	"github.com/uhyunpark/homebroker/pkg/app/core/outbox"
)

// Journal is an append-only audit export of fills and order states. The
// transport layer writes to it after an engine call returns; nothing is ever
// read back into an engine.
type Journal struct {
	db *pebble.DB
}

func OpenJournal(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open journal at %s", path)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// RecordFills writes fills in one batch.
func (j *Journal) RecordFills(fills []orderbook.Fill) error {
	if len(fills) == 0 {
		return nil
	}
	b := j.db.NewBatch()
	defer b.Close()

	for _, f := range fills {
		data, err := json.Marshal(newFillRecord(f))
		if err != nil {
			return errors.Wrapf(err, "marshal fill %s", f.ID)
		}
		if err := b.Set(fillKey(f.Symbol, f.Timestamp, f.ID), data, nil); err != nil {
			return errors.Wrapf(err, "stage fill %s", f.ID)
		}
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return errors.Wrap(err, "commit fills")
	}
	return nil
}

// RecordOrders overwrites the stored state of each order.
func (j *Journal) RecordOrders(orders ...orderbook.Order) error {
	if len(orders) == 0 {
		return nil
	}
	b := j.db.NewBatch()
	defer b.Close()

	for _, o := range orders {
		data, err := json.Marshal(newOrderRecord(o))
		if err != nil {
			return errors.Wrapf(err, "marshal order %s", o.ID)
		}
		if err := b.Set(orderKey(o.Owner, o.ID), data, nil); err != nil {
			return errors.Wrapf(err, "stage order %s", o.ID)
		}
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return errors.Wrap(err, "commit orders")
	}
	return nil
}

// RecentFills loads up to limit of the newest fills for symbol, newest first.
func (j *Journal) RecentFills(symbol string, limit int) ([]FillRecord, error) {
	prefix := fillPrefix(symbol)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open fill iterator")
	}
	defer iter.Close()

	var out []FillRecord
	for iter.Last(); iter.Valid() && len(out) < limit; iter.Prev() {
		var rec FillRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // skip undecodable entries
		}
		out = append(out, rec)
	}
	return out, nil
}

// OwnerOrders loads every journaled order of owner, sorted by order id.
func (j *Journal) OwnerOrders(owner string) ([]OrderRecord, error) {
	prefix := orderPrefix(owner)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open order iterator")
	}
	defer iter.Close()

	var out []OrderRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var rec OrderRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Deliver implements outbox.Sink. Order states are written before fills.
func (j *Journal) Deliver(_ context.Context, b outbox.Batch) error {
	if err := j.RecordOrders(b.Orders...); err != nil {
		return err
	}
	return j.RecordFills(b.Fills)
}
