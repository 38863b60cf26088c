package repository

import (
	"context"
	"fmt"

	"rentalhub/internal/database"
)

// Collection maps records of one store collection to T through their JSON form.
type Collection[T any] struct {
	store *database.Store
	name  string
}

func NewCollection[T any](store *database.Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	records, err := c.store.GetCollection(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(records)
}

// Get returns nil when no record has the id.
func (c *Collection[T]) Get(ctx context.Context, id any) (*T, error) {
	rec, err := c.store.GetItem(ctx, c.name, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return c.decode(rec)
}

// Add stores item under a fresh id; any id set on item is ignored.
func (c *Collection[T]) Add(ctx context.Context, item T) (*T, error) {
	rec, err := database.ToRecord(item)
	if err != nil {
		return nil, err
	}
	delete(rec, "id")

	stored, err := c.store.AddItem(ctx, c.name, rec)
	if err != nil {
		return nil, err
	}
	return c.decode(stored)
}

// AddIf stores item only if check accepts the items already in the
// collection. The check and the insert are one store write.
func (c *Collection[T]) AddIf(ctx context.Context, item T, check func(existing []T) error) (*T, error) {
	rec, err := database.ToRecord(item)
	if err != nil {
		return nil, err
	}
	delete(rec, "id")

	var checkRecords func([]database.Record) error
	if check != nil {
		checkRecords = func(items []database.Record) error {
			existing, err := c.decodeAll(items)
			if err != nil {
				return err
			}
			return check(existing)
		}
	}
	stored, err := c.store.AddItemIf(ctx, c.name, rec, checkRecords)
	if err != nil {
		return nil, err
	}
	return c.decode(stored)
}

// Update merges fields into the record and returns the result, or nil when
// no record has the id.
func (c *Collection[T]) Update(ctx context.Context, id any, fields database.Record) (*T, error) {
	rec, err := c.store.UpdateItem(ctx, c.name, id, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	return c.decode(rec)
}

// UpdateFunc merges the fields fn returns for the current item. fn also sees
// every item of the collection and runs inside the same store write as the
// update, so it can enforce rules that depend on the current state.
func (c *Collection[T]) UpdateFunc(ctx context.Context, id any, fn func(current *T, all []T) (database.Record, error)) (*T, error) {
	rec, err := c.store.UpdateItemFunc(ctx, c.name, id, func(current database.Record, items []database.Record) (any, error) {
		cur, err := c.decode(current)
		if err != nil {
			return nil, err
		}
		all, err := c.decodeAll(items)
		if err != nil {
			return nil, err
		}
		return fn(cur, all)
	})
	if err != nil || rec == nil {
		return nil, err
	}
	return c.decode(rec)
}

func (c *Collection[T]) Delete(ctx context.Context, id any) (bool, error) {
	return c.store.DeleteItem(ctx, c.name, id)
}

func (c *Collection[T]) Filter(ctx context.Context, pred func(*T) bool) ([]T, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for i := range all {
		if pred(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (c *Collection[T]) Query(ctx context.Context, match database.Record) ([]T, error) {
	records, err := c.store.QueryCollection(ctx, c.name, match)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(records)
}

func (c *Collection[T]) decode(rec database.Record) (*T, error) {
	var item T
	if err := rec.Decode(&item); err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return &item, nil
}

func (c *Collection[T]) decodeAll(records []database.Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		item, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}
