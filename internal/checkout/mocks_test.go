package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/auth"
	"github.com/fjod/shopflow/internal/cart"
	"github.com/fjod/shopflow/internal/catalog"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/draft"
	"github.com/fjod/shopflow/internal/events"
	"github.com/fjod/shopflow/internal/logging"
	"github.com/fjod/shopflow/internal/session"
	"github.com/fjod/shopflow/internal/storage"
	"github.com/fjod/shopflow/internal/surface"
)

// MockCaller answers every call with the same payload or error. When gate is
// set, calls block until it is closed.
type MockCaller struct {
	mu      sync.Mutex
	calls   int
	lastKey string
	body    any
	resp    string
	err     error

	entered chan struct{}
	gate    chan struct{}
}

func (m *MockCaller) Call(ctx context.Context, method, path string, body any, opts ...apigw.CallOption) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls++
	m.body = body
	entered, gate := m.entered, m.gate
	resp, err := m.resp, m.err
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp), nil
}

func (m *MockCaller) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockCart struct {
	removed [][]int64
	err     error
}

func (m *MockCart) RemoveSubmittedItems(_ context.Context, ids []int64) error {
	m.removed = append(m.removed, ids)
	return m.err
}

// MockDrafts holds one live draft id. When replaceWith is set, the live
// draft is swapped for it right after the submitter's check, as if the
// shopper started another purchase mid-request.
type MockDrafts struct {
	mu          sync.Mutex
	liveID      string
	replaceWith string
	discarded   []string
}

func (m *MockDrafts) Live(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := id != "" && id == m.liveID
	if live && m.replaceWith != "" {
		m.liveID = m.replaceWith
	}
	return live
}

func (m *MockDrafts) Discard(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.liveID {
		return false
	}
	m.discarded = append(m.discarded, id)
	m.liveID = ""
	return true
}

type MockPublisher struct {
	mu     sync.Mutex
	events []events.OrderSubmitted
	err    error
}

func (m *MockPublisher) Publish(_ context.Context, e events.OrderSubmitted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) Events() []events.OrderSubmitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.OrderSubmitted(nil), m.events...)
}

// fakeShop is a commerce API backed by in-memory products and addresses.
type fakeShop struct {
	t *testing.T

	mu          sync.Mutex
	products    map[int64]domain.Product
	addresses   []domain.Address
	createOrder http.HandlerFunc
	lastOrder   []byte
	lastIdemKey string
	orderCalls  atomic.Int32
	listCalls   atomic.Int32
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "message": "success", "data": data})
}

func (s *fakeShop) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		p, ok := s.products[id]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "product not found"}`))
			return
		}
		writeEnvelope(w, p)
	})
	mux.HandleFunc("GET /api/addresses/", func(w http.ResponseWriter, r *http.Request) {
		s.listCalls.Add(1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		s.mu.Lock()
		list := append([]domain.Address{}, s.addresses...)
		s.mu.Unlock()
		writeEnvelope(w, list)
	})
	mux.HandleFunc("POST /api/auth/send-code", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"verifyCode": "123456"})
	})
	mux.HandleFunc("POST /api/auth/phone-login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{
			"access_token": "fresh-token",
			"token_type":   "bearer",
			"user":         map[string]any{"id": 1, "phone": "13800138000"},
		})
	})
	mux.HandleFunc("POST /api/orders/", func(w http.ResponseWriter, r *http.Request) {
		s.orderCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.lastOrder = body
		s.lastIdemKey = r.Header.Get("X-Idempotency-Key")
		h := s.createOrder
		s.mu.Unlock()
		h(w, r)
	})
	return mux
}

func (s *fakeShop) setCreateOrder(h http.HandlerFunc) {
	s.mu.Lock()
	s.createOrder = h
	s.mu.Unlock()
}

func (s *fakeShop) setAddresses(list []domain.Address) {
	s.mu.Lock()
	s.addresses = list
	s.mu.Unlock()
}

func (s *fakeShop) lastOrderRequest() (map[string]any, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out map[string]any
	require.NoError(s.t, json.Unmarshal(s.lastOrder, &out))
	return out, s.lastIdemKey
}

func (s *fakeShop) rawLastOrder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.lastOrder)
}

func acceptOrder(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, map[string]any{
		"id":           99,
		"order_no":     "SO202401010001",
		"status":       "pending",
		"total_amount": 20.00,
	})
}

// harness wires the real components against fakeShop.
type harness struct {
	shop      *fakeShop
	kv        *storage.MemoryStore
	session   *session.Session
	cart      *cart.Store
	drafts    *draft.Context
	recorder  *surface.Recorder
	gate      *auth.Gate
	submitter *Submitter
	publisher *MockPublisher
	flow      *Flow
}

func product(id int64, name, price string, stock int) domain.Product {
	return domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock, IsActive: true}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	ctx := context.Background()

	shop := &fakeShop{
		t: t,
		products: map[int64]domain.Product{
			1: product(1, "A", "10.00", 10),
			2: product(2, "B", "5.00", 10),
			3: product(3, "C", "3.00", 10),
		},
		addresses: []domain.Address{
			{ID: 1, RecipientName: "Han Meimei", Phone: "13900139000", Detail: "Room 1"},
			{ID: 2, RecipientName: "Li Lei", Phone: "13800138000", Detail: "Room 2", IsDefault: true},
		},
		createOrder: acceptOrder,
	}
	srv := httptest.NewServer(shop.handler())
	t.Cleanup(srv.Close)

	log := logging.Nop()
	kv := storage.NewMemoryStore()
	sess, err := session.Open(ctx, kv)
	require.NoError(t, err)
	cartStore, err := cart.Open(ctx, kv)
	require.NoError(t, err)

	drafts := draft.NewContext()
	rec := surface.NewRecorder()
	gate := auth.NewGate(sess, drafts, rec, rec, log)
	gw := apigw.NewGateway(srv.URL, 2*time.Second, sess,
		apigw.WithHTTPClient(srv.Client()), apigw.WithUnauthorizedHandler(gate), apigw.WithLogger(log))

	pub := &MockPublisher{}
	sub := NewSubmitter(gw, cartStore, drafts, pub, log)
	flow := NewFlow(cfg, Deps{
		Catalog:   catalog.NewClient(gw),
		Cart:      cartStore,
		Addresses: address.NewProvider(gw, log),
		Accounts:  auth.NewClient(gw, sess, gate, rec, log),
		Drafts:    drafts,
		Gate:      gate,
		Submitter: sub,
		Navigator: rec,
		Notifier:  rec,
		Logger:    log,
	})

	return &harness{
		shop:      shop,
		kv:        kv,
		session:   sess,
		cart:      cartStore,
		drafts:    drafts,
		recorder:  rec,
		gate:      gate,
		submitter: sub,
		publisher: pub,
		flow:      flow,
	}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.SignIn(context.Background(), "tok", &domain.User{ID: 1}))
}

func (h *harness) addToCart(t *testing.T, id int64, qty int) {
	t.Helper()
	p := h.shop.products[id]
	require.NoError(t, h.cart.AddOrMerge(context.Background(), p.Snapshot(), qty))
}

var errBoom = errors.New("boom")
