package checkout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/auth"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/draft"
	"github.com/fjod/shopflow/internal/surface"
)

type Config struct {
	// RequireExplicitAddressConfirmation makes Submit refuse a draft whose
	// address was not chosen by the shopper. When false the default (or
	// first) address is attached automatically.
	RequireExplicitAddressConfirmation bool
}

type Catalog interface {
	Snapshot(ctx context.Context, productID int64, qty int) (domain.ProductSnapshot, error)
}

type Cart interface {
	AddOrMerge(ctx context.Context, snap domain.ProductSnapshot, delta int) error
	Selected() []domain.CartItem
}

type Addresses interface {
	List(ctx context.Context) ([]domain.Address, error)
	SelectInteractively(ctx context.Context, selector surface.AddressSelector) (domain.Address, error)
}

type Accounts interface {
	SendCode(ctx context.Context, phone string) (auth.SendCodeResult, error)
	Login(ctx context.Context, phone, code string) (surface.Destination, error)
	Logout(ctx context.Context) error
}

// Flow turns shopper intents into component calls and tells the surface
// layer where to go next.
type Flow struct {
	cfg       Config
	catalog   Catalog
	cart      Cart
	addresses Addresses
	accounts  Accounts
	drafts    *draft.Context
	gate      *auth.Gate
	submitter *Submitter
	nav       surface.Navigator
	notify    surface.Notifier
	log       *slog.Logger
}

type Deps struct {
	Catalog   Catalog
	Cart      Cart
	Addresses Addresses
	Accounts  Accounts
	Drafts    *draft.Context
	Gate      *auth.Gate
	Submitter *Submitter
	Navigator surface.Navigator
	Notifier  surface.Notifier
	Logger    *slog.Logger
}

func NewFlow(cfg Config, deps Deps) *Flow {
	return &Flow{
		cfg:       cfg,
		catalog:   deps.Catalog,
		cart:      deps.Cart,
		addresses: deps.Addresses,
		accounts:  deps.Accounts,
		drafts:    deps.Drafts,
		gate:      deps.Gate,
		submitter: deps.Submitter,
		nav:       deps.Navigator,
		notify:    deps.Notifier,
		log:       deps.Logger,
	}
}

// AddToCart needs a signed-in shopper. When the gate intervenes the cart is
// not touched and the login destination is returned.
func (f *Flow) AddToCart(ctx context.Context, productID int64, qty int) (surface.Destination, error) {
	snap, err := f.catalog.Snapshot(ctx, productID, qty)
	if err != nil {
		return surface.Destination{}, err
	}
	if !f.gate.EnsureAuthenticated(ctx, surface.ProductPage(productID)) {
		return surface.To(surface.Login), nil
	}
	if err := f.cart.AddOrMerge(ctx, snap, qty); err != nil {
		return surface.Destination{}, err
	}
	f.notify.Notify(ctx, "added to cart")
	return surface.ProductPage(productID), nil
}

func (f *Flow) CheckoutFromCart(ctx context.Context) (surface.Destination, error) {
	selected := f.cart.Selected()
	if len(selected) == 0 {
		return surface.Destination{}, domain.Validationf("please select items to check out")
	}
	d, err := f.drafts.BeginFromCart(selected)
	if err != nil {
		return surface.Destination{}, err
	}
	f.log.DebugContext(ctx, "draft started", "draft_id", d.ID, "source", d.Source, "items", len(d.Items))

	if !f.gate.EnsureAuthenticated(ctx, surface.To(surface.Cart)) {
		return surface.To(surface.Login), nil
	}
	return f.present(ctx, surface.To(surface.Checkout)), nil
}

// BuyNow starts a single-item draft before the gate, so logging in resumes
// straight into checkout. The cart is never touched.
func (f *Flow) BuyNow(ctx context.Context, productID int64, qty int) (surface.Destination, error) {
	snap, err := f.catalog.Snapshot(ctx, productID, qty)
	if err != nil {
		return surface.Destination{}, err
	}
	d, err := f.drafts.BeginFromSingleItem(snap, qty)
	if err != nil {
		return surface.Destination{}, err
	}
	f.log.DebugContext(ctx, "draft started", "draft_id", d.ID, "source", d.Source, "product_id", productID)

	if !f.gate.EnsureAuthenticated(ctx, surface.ProductPage(productID)) {
		return surface.To(surface.Login), nil
	}
	return f.present(ctx, surface.To(surface.Checkout)), nil
}

func (f *Flow) SendCode(ctx context.Context, phone string) (auth.SendCodeResult, error) {
	return f.accounts.SendCode(ctx, phone)
}

// Login resumes whatever the gate interrupted; see auth.Client.Login.
func (f *Flow) Login(ctx context.Context, phone, code string) (surface.Destination, error) {
	return f.accounts.Login(ctx, phone, code)
}

func (f *Flow) Logout(ctx context.Context) error {
	return f.accounts.Logout(ctx)
}

// View is what the checkout surface renders.
type View struct {
	Draft     domain.DraftOrder `json:"draft"`
	Addresses []domain.Address  `json:"addresses"`
	// Proposed is the address the surface should highlight; it is only
	// attached to the draft once confirmed, unless confirmation is off.
	Proposed             *domain.Address `json:"proposed_address,omitempty"`
	Total                decimal.Decimal `json:"total"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
}

func (f *Flow) CheckoutView(ctx context.Context) (View, error) {
	d, ok := f.drafts.Current()
	if !ok {
		return View{}, noDraft()
	}
	addresses, err := f.addresses.List(ctx)
	if err != nil {
		return View{}, err
	}

	proposed := d.Address
	if proposed == nil {
		proposed = address.PickDefaultOrFirst(addresses)
		if proposed != nil && !f.cfg.RequireExplicitAddressConfirmation {
			if d, err = f.drafts.AttachAddress(*proposed); err != nil {
				return View{}, err
			}
		}
	}

	return View{
		Draft:                d,
		Addresses:            addresses,
		Proposed:             proposed,
		Total:                d.Total(),
		RequiresConfirmation: d.Address == nil,
	}, nil
}

// ChooseAddress lets the shopper pick an address for the draft. A cancelled
// selection leaves the draft as it was and returns ErrSelectionCancelled.
func (f *Flow) ChooseAddress(ctx context.Context, selector surface.AddressSelector) (domain.DraftOrder, error) {
	current, ok := f.drafts.Current()
	if !ok {
		return domain.DraftOrder{}, noDraft()
	}
	chosen, err := f.addresses.SelectInteractively(ctx, selector)
	if err != nil {
		if errors.Is(err, domain.ErrSelectionCancelled) {
			f.log.DebugContext(ctx, "address selection cancelled", "draft_id", current.ID)
		}
		return current, err
	}
	return f.drafts.AttachAddress(chosen)
}

// Submit places the current draft and, on success, shows the new order.
func (f *Flow) Submit(ctx context.Context) (domain.Order, surface.Destination, error) {
	d, ok := f.drafts.Current()
	if !ok {
		return domain.Order{}, surface.Destination{}, noDraft()
	}
	if !f.gate.EnsureAuthenticated(ctx, surface.To(surface.Checkout)) {
		return domain.Order{}, surface.To(surface.Login), &domain.Error{Kind: domain.ErrAuth, Message: "please log in first"}
	}

	if d.Address == nil {
		if f.cfg.RequireExplicitAddressConfirmation {
			return domain.Order{}, surface.Destination{}, &domain.Error{Kind: domain.ErrNoAddress, Message: "please choose a shipping address"}
		}
		attached, err := f.attachDefault(ctx)
		if err != nil {
			return domain.Order{}, surface.Destination{}, err
		}
		d = attached
	}

	order, err := f.submitter.Submit(ctx, d)
	if err != nil {
		return domain.Order{}, surface.Destination{}, err
	}
	f.notify.Notify(ctx, "order placed")
	return order, f.present(ctx, surface.OrderPage(order.ID)), nil
}

func (f *Flow) attachDefault(ctx context.Context) (domain.DraftOrder, error) {
	addresses, err := f.addresses.List(ctx)
	if err != nil {
		return domain.DraftOrder{}, err
	}
	picked := address.PickDefaultOrFirst(addresses)
	if picked == nil {
		return domain.DraftOrder{}, &domain.Error{Kind: domain.ErrNoAddress, Message: "please add a shipping address"}
	}
	return f.drafts.AttachAddress(*picked)
}

// Cancel abandons the draft and goes back to where it was started from.
func (f *Flow) Cancel(ctx context.Context) surface.Destination {
	d, ok := f.drafts.Current()
	f.drafts.Clear()

	dest := surface.To(surface.Home)
	switch {
	case !ok:
	case d.Source == domain.DraftSourceCart:
		dest = surface.To(surface.Cart)
	case len(d.Items) > 0:
		dest = surface.ProductPage(d.Items[0].ProductID)
	}
	return f.present(ctx, dest)
}

func (f *Flow) present(ctx context.Context, dest surface.Destination) surface.Destination {
	f.nav.Present(ctx, dest)
	return dest
}

func noDraft() error {
	return &domain.Error{Kind: domain.ErrNoDraft, Message: "no order in progress"}
}
