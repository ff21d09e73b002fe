package draft

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/shopflow/internal/domain"
)

// Context holds the single in-progress DraftOrder for the session. It is
// never persisted; a restart loses it.
type Context struct {
	mu    sync.Mutex
	draft *domain.DraftOrder
	now   func() time.Time
}

func NewContext() *Context {
	return &Context{now: time.Now}
}

// BeginFromCart starts a draft from the selected cart lines, replacing any
// existing draft.
func (c *Context) BeginFromCart(items []domain.CartItem) (domain.DraftOrder, error) {
	if len(items) == 0 {
		return domain.DraftOrder{}, domain.Validationf("please select items to check out")
	}
	lines := make([]domain.DraftItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return domain.DraftOrder{}, domain.Validationf("quantity of %s must be at least 1", it.Name)
		}
		lines = append(lines, draftItem(it.ProductSnapshot, it.Quantity))
	}
	return c.begin(domain.DraftSourceCart, lines), nil
}

// BeginFromSingleItem starts a "buy now" draft, replacing any existing draft.
func (c *Context) BeginFromSingleItem(snap domain.ProductSnapshot, qty int) (domain.DraftOrder, error) {
	if qty < 1 {
		return domain.DraftOrder{}, domain.Validationf("quantity must be at least 1")
	}
	if snap.Stock > 0 && qty > snap.Stock {
		return domain.DraftOrder{}, domain.Validationf("only %d of %s left in stock", snap.Stock, snap.Name)
	}
	return c.begin(domain.DraftSourceBuyNow, []domain.DraftItem{draftItem(snap, qty)}), nil
}

func (c *Context) begin(source domain.DraftSource, items []domain.DraftItem) domain.DraftOrder {
	d := &domain.DraftOrder{
		ID:        uuid.NewString(),
		Source:    source,
		Items:     items,
		CreatedAt: c.now(),
	}
	c.mu.Lock()
	c.draft = d
	c.mu.Unlock()
	return d.Clone()
}

// AttachAddress records the shipping address on the live draft.
func (c *Context) AttachAddress(a domain.Address) (domain.DraftOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return domain.DraftOrder{}, &domain.Error{Kind: domain.ErrNoDraft, Message: "no order in progress"}
	}
	addr := a
	c.draft.Address = &addr
	return c.draft.Clone(), nil
}

// Current returns a copy of the live draft.
func (c *Context) Current() (domain.DraftOrder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return domain.DraftOrder{}, false
	}
	return c.draft.Clone(), true
}

// Clear drops the draft. Calling it without a draft is a no-op.
func (c *Context) Clear() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
}

// Discard clears the draft only if it is still the one with id, so a draft
// begun in the meantime survives. Reports whether anything was cleared.
// Live reports whether id names the current draft.
func (c *Context) Live(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft != nil && c.draft.ID == id
}

func (c *Context) Discard(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil || c.draft.ID != id {
		return false
	}
	c.draft = nil
	return true
}

func draftItem(snap domain.ProductSnapshot, qty int) domain.DraftItem {
	return domain.DraftItem{
		ProductID: snap.ProductID,
		Name:      snap.Name,
		ImageRef:  snap.ImageRef,
		Quantity:  qty,
		UnitPrice: snap.UnitPrice,
	}
}
