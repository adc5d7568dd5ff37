package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sweetfrozen/storefront/internal/storage"
	"github.com/sweetfrozen/storefront/pkg/pagination"
)

const keyPrefix = "orders:"

// Store is the JSON key-value layer the order log is kept in.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
}

// Log is an append-only list of orders per user.
type Log struct {
	store Store
	locks *storage.KeyLocks
}

func NewLog(store Store) *Log {
	return &Log{store: store, locks: storage.NewKeyLocks()}
}

func logKey(userKey string) string {
	return keyPrefix + userKey
}

// Append adds order to the end of its user's log.
func (l *Log) Append(ctx context.Context, order Order) error {
	userKey := strings.TrimSpace(order.UserKey)
	if userKey == "" {
		return fmt.Errorf("order user key required")
	}
	unlock := l.locks.Lock(logKey(userKey))
	defer unlock()

	list := l.List(ctx, userKey)
	list = append(list, order)
	if err := l.store.Set(ctx, logKey(userKey), list); err != nil {
		return fmt.Errorf("save order log: %w", err)
	}
	return nil
}

// List returns the user's orders oldest first.
func (l *Log) List(ctx context.Context, userKey string) []Order {
	var list []Order
	if !l.store.Get(ctx, logKey(userKey), &list) || list == nil {
		return []Order{}
	}
	return list
}

// Page is one slice of a user's order history.
type Page struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// ListPage returns the user's orders in (CreatedAt, ID) order, starting after
// the cursor in params. NextCursor is empty on the last page.
func (l *Log) ListPage(ctx context.Context, userKey string, params pagination.Params) (Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	history := l.List(ctx, userKey)
	sort.SliceStable(history, func(i, j int) bool {
		if !history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].CreatedAt.Before(history[j].CreatedAt)
		}
		return history[i].ID < history[j].ID
	})

	page := Page{Orders: make([]Order, 0, limit)}
	for _, order := range history {
		if cursor != nil && !cursor.After(order.CreatedAt, order.ID) {
			continue
		}
		if len(page.Orders) == limit {
			last := page.Orders[limit-1]
			page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			break
		}
		page.Orders = append(page.Orders, order)
	}
	return page, nil
}
