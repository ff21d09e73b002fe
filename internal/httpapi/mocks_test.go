package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/auth"
	"github.com/fjod/shopflow/internal/cart"
	"github.com/fjod/shopflow/internal/checkout"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/logging"
	"github.com/fjod/shopflow/internal/storage"
	"github.com/fjod/shopflow/internal/surface"
)

type MockProducts struct {
	products []domain.Product
	err      error
}

func (m *MockProducts) List(context.Context, int, int) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *MockProducts) Get(_ context.Context, id int64) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &domain.Error{Kind: domain.ErrRequest, Status: http.StatusNotFound, Message: "product not found"}
}

// MockFlow records intents and answers with canned results.
type MockFlow struct {
	store *cart.Store
	nav   *surface.Recorder

	next     surface.Destination
	err      error
	view     checkout.View
	order    domain.Order
	draft    domain.DraftOrder
	chosenID int64
	added    []int64
}

func (m *MockFlow) AddToCart(ctx context.Context, productID int64, qty int) (surface.Destination, error) {
	if m.err != nil {
		return surface.Destination{}, m.err
	}
	m.added = append(m.added, productID)
	snap := domain.ProductSnapshot{ProductID: productID, Name: "p", Stock: 10}
	if err := m.store.AddOrMerge(ctx, snap, qty); err != nil {
		return surface.Destination{}, err
	}
	m.nav.Notify(ctx, "added to cart")
	return surface.ProductPage(productID), nil
}

func (m *MockFlow) CheckoutFromCart(context.Context) (surface.Destination, error) {
	return m.next, m.err
}

func (m *MockFlow) BuyNow(context.Context, int64, int) (surface.Destination, error) {
	return m.next, m.err
}

func (m *MockFlow) CheckoutView(context.Context) (checkout.View, error) {
	return m.view, m.err
}

func (m *MockFlow) ChooseAddress(ctx context.Context, selector surface.AddressSelector) (domain.DraftOrder, error) {
	if m.err != nil {
		return domain.DraftOrder{}, m.err
	}
	a, err := selector.SelectAddress(ctx, []domain.Address{{ID: 1}, {ID: 2}})
	if err != nil {
		return m.draft, err
	}
	m.chosenID = a.ID
	d := m.draft
	d.Address = &a
	return d, nil
}

func (m *MockFlow) Submit(context.Context) (domain.Order, surface.Destination, error) {
	if m.err != nil {
		return domain.Order{}, m.next, m.err
	}
	return m.order, surface.OrderPage(m.order.ID), nil
}

func (m *MockFlow) Cancel(context.Context) surface.Destination {
	return surface.To(surface.Cart)
}

type MockAuth struct {
	identity *MockIdentity
	err      error
}

func (m *MockAuth) SendCode(_ context.Context, phone string) (auth.SendCodeResult, error) {
	if err := auth.ValidatePhone(phone); err != nil {
		return auth.SendCodeResult{}, err
	}
	return auth.SendCodeResult{VerifyCode: "123456"}, m.err
}

func (m *MockAuth) Login(_ context.Context, phone, code string) (surface.Destination, error) {
	if m.err != nil {
		return surface.Destination{}, m.err
	}
	m.identity.user = &domain.User{ID: 1, Phone: phone}
	return surface.To(surface.Checkout), nil
}

func (m *MockAuth) Logout(context.Context) error {
	m.identity.user = nil
	return m.err
}

type MockIdentity struct {
	user *domain.User
}

func (m *MockIdentity) Authenticated() bool { return m.user != nil }
func (m *MockIdentity) User() *domain.User  { return m.user }

type MockAddressBook struct {
	list    []domain.Address
	created []address.Input
	deleted []int64
	err     error
}

func (m *MockAddressBook) List(context.Context) ([]domain.Address, error) {
	return m.list, m.err
}

func (m *MockAddressBook) Create(_ context.Context, in address.Input) (domain.Address, error) {
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	m.created = append(m.created, in)
	return domain.Address{ID: 10, RecipientName: in.RecipientName, Phone: in.Phone, Detail: in.Detail}, m.err
}

func (m *MockAddressBook) Update(_ context.Context, id int64, in address.Input) (domain.Address, error) {
	return domain.Address{ID: id, RecipientName: in.RecipientName}, m.err
}

func (m *MockAddressBook) Delete(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

type MockOrders struct {
	order domain.Order
	err   error
}

func (m *MockOrders) Get(_ context.Context, id int64) (domain.Order, error) {
	o := m.order
	o.ID = id
	return o, m.err
}

func (m *MockOrders) List(context.Context, int, int) ([]domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Order{m.order}, nil
}

func (m *MockOrders) Cancel(ctx context.Context, id int64) (domain.Order, error) {
	o, err := m.Get(ctx, id)
	o.Status = domain.OrderStatusCancelled
	return o, err
}

func (m *MockOrders) Pay(ctx context.Context, id int64) (domain.Order, error) {
	o, err := m.Get(ctx, id)
	o.Status = domain.OrderStatusPaid
	return o, err
}

type testAPI struct {
	handler   http.Handler
	recorder  *surface.Recorder
	cart      *cart.Store
	products  *MockProducts
	flow      *MockFlow
	auth      *MockAuth
	identity  *MockIdentity
	addresses *MockAddressBook
	orders    *MockOrders
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	rec := surface.NewRecorder()
	store, err := cart.Open(context.Background(), storage.NewMemoryStore())
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}

	identity := &MockIdentity{}
	api := &testAPI{
		recorder:  rec,
		cart:      store,
		products:  &MockProducts{},
		flow:      &MockFlow{store: store, nav: rec},
		auth:      &MockAuth{identity: identity},
		identity:  identity,
		addresses: &MockAddressBook{},
		orders:    &MockOrders{order: domain.Order{OrderNo: "SO1", Status: domain.OrderStatusPending}},
	}
	api.route(api.addresses)
	return api
}

// route rebuilds the router with book serving /addresses.
func (a *testAPI) route(book AddressBook) {
	rec := a.recorder
	a.handler = NewRouter(Handlers{
		Products: NewProductHandler(a.products, rec),
		Cart:     NewCartHandler(a.cart, a.flow, rec),
		Checkout: NewCheckoutHandler(a.flow, rec),
		Auth:     NewAuthHandler(a.auth, a.identity, rec),
		Address:  NewAddressHandler(book, rec),
		Orders:   NewOrdersHandler(a.orders, rec),
		Surface:  rec,
	}, 5*time.Second, logging.Nop())
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}
