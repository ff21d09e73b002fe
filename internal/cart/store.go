package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/storage"
)

const storageKey = "cart"

// Store is the shopper's cart. Every mutation is written to storage before
// it becomes visible, so a failed write leaves the cart as it was.
type Store struct {
	mu    sync.Mutex
	kv    storage.Store
	items []domain.CartItem
}

// Open loads the persisted cart. A missing key is an empty cart.
func Open(ctx context.Context, kv storage.Store) (*Store, error) {
	s := &Store{kv: kv}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Reload(ctx context.Context) error {
	items, err := load(ctx, s.kv)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func load(ctx context.Context, kv storage.Store) ([]domain.CartItem, error) {
	raw, err := kv.Get(ctx, storageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

// Items returns a copy in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.items...)
}

func (s *Store) Selected() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CartItem
	for _, it := range s.items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// AllSelected is false for an empty cart.
func (s *Store) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return false
	}
	for _, it := range s.items {
		if !it.Selected {
			return false
		}
	}
	return true
}

// Subtotal sums selected lines and rounds half away from zero to cents.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, it := range s.items {
		if it.Selected {
			sum = sum.Add(it.LineTotal())
		}
	}
	return sum.Round(2)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// AddOrMerge adds delta units of the product, merging into an existing line.
// The snapshot refreshes the line's name, image, price and stock.
func (s *Store) AddOrMerge(ctx context.Context, snap domain.ProductSnapshot, delta int) error {
	if delta < 1 {
		return domain.Validationf("quantity must be at least 1")
	}
	if snap.Stock <= 0 {
		return domain.Validationf("%s is out of stock", snap.Name)
	}

	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			if items[i].ProductID != snap.ProductID {
				continue
			}
			qty := items[i].Quantity + delta
			if qty > snap.Stock {
				return nil, domain.Validationf("only %d of %s left in stock", snap.Stock, snap.Name)
			}
			items[i].ProductSnapshot = snap
			items[i].Quantity = qty
			return items, nil
		}
		if delta > snap.Stock {
			return nil, domain.Validationf("only %d of %s left in stock", snap.Stock, snap.Name)
		}
		return append(items, domain.CartItem{ProductSnapshot: snap, Quantity: delta, Selected: true}), nil
	})
}

// SetQuantity replaces a line's quantity; anything below 1 removes the line.
func (s *Store) SetQuantity(ctx context.Context, productID int64, qty int) error {
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, domain.Validationf("product %d is not in the cart", productID)
		}
		if qty < 1 {
			return append(items[:i], items[i+1:]...), nil
		}
		if items[i].Stock > 0 && qty > items[i].Stock {
			return nil, domain.Validationf("only %d of %s left in stock", items[i].Stock, items[i].Name)
		}
		items[i].Quantity = qty
		return items, nil
	})
}

func (s *Store) Increment(ctx context.Context, productID int64) error {
	return s.step(ctx, productID, 1)
}

// Decrement past one removes the line.
func (s *Store) Decrement(ctx context.Context, productID int64) error {
	return s.step(ctx, productID, -1)
}

func (s *Store) step(ctx context.Context, productID int64, by int) error {
	s.mu.Lock()
	i := indexOf(s.items, productID)
	qty := 0
	if i >= 0 {
		qty = s.items[i].Quantity
	}
	s.mu.Unlock()
	if i < 0 {
		return domain.Validationf("product %d is not in the cart", productID)
	}
	return s.SetQuantity(ctx, productID, qty+by)
}

func (s *Store) Remove(ctx context.Context, productID int64) error {
	return s.RemoveSubmittedItems(ctx, []int64{productID})
}

func (s *Store) ToggleSelected(ctx context.Context, productID int64) error {
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, domain.Validationf("product %d is not in the cart", productID)
		}
		items[i].Selected = !items[i].Selected
		return items, nil
	})
}

func (s *Store) ToggleSelectAll(ctx context.Context, selected bool) error {
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			items[i].Selected = selected
		}
		return items, nil
	})
}

// RemoveSubmittedItems drops exactly the given products; unknown ids are ignored.
func (s *Store) RemoveSubmittedItems(ctx context.Context, productIDs []int64) error {
	drop := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		drop[id] = struct{}{}
	}
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		kept := items[:0]
		for _, it := range items {
			if _, ok := drop[it.ProductID]; !ok {
				kept = append(kept, it)
			}
		}
		return kept, nil
	})
}

// mutate applies fn to a copy, persists the result and only then swaps it in.
func (s *Store) mutate(ctx context.Context, fn func([]domain.CartItem) ([]domain.CartItem, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(append([]domain.CartItem(nil), s.items...))
	if err != nil {
		return err
	}

	raw, err := json.Marshal(nonNil(next))
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.items = next
	return nil
}

func indexOf(items []domain.CartItem, productID int64) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func nonNil(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return []domain.CartItem{}
	}
	return items
}
