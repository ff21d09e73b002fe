package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/events"
)

type State int32

const (
	StateIdle State = iota
	StateSubmitting
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CartReconciler drops submitted lines from the cart.
type CartReconciler interface {
	RemoveSubmittedItems(ctx context.Context, productIDs []int64) error
}

// DraftDiscarder knows which draft is live. A draft that is no longer live
// has been submitted or replaced and must not be sent.
type DraftDiscarder interface {
	Live(id string) bool
	Discard(id string) bool
}

type createOrderItem struct {
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
}

type createOrderRequest struct {
	AddressID int64             `json:"address_id"`
	Items     []createOrderItem `json:"items"`
}

// Submitter turns a complete draft into exactly one create-order call at a
// time. It never retries.
type Submitter struct {
	gw        apigw.Caller
	cart      CartReconciler
	drafts    DraftDiscarder
	publisher events.Publisher
	log       *slog.Logger
	now       func() time.Time

	state atomic.Int32
}

func NewSubmitter(gw apigw.Caller, cart CartReconciler, drafts DraftDiscarder, publisher events.Publisher, log *slog.Logger) *Submitter {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Submitter{
		gw:        gw,
		cart:      cart,
		drafts:    drafts,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *Submitter) State() State {
	return State(s.state.Load())
}

// Submit places the order described by d. On failure the draft and cart are
// left exactly as they were so the shopper can retry by hand.
func (s *Submitter) Submit(ctx context.Context, d domain.DraftOrder) (domain.Order, error) {
	if err := validate(d); err != nil {
		submissions.WithLabelValues(domain.KindName(err)).Inc()
		return domain.Order{}, err
	}
	prev, ok := s.acquire()
	if !ok {
		submissions.WithLabelValues(domain.KindName(domain.ErrAlreadyInProgress)).Inc()
		return domain.Order{}, &domain.Error{Kind: domain.ErrAlreadyInProgress, Message: "your order is being submitted"}
	}
	// a caller may hold a copy of a draft that was committed while it waited
	if !s.drafts.Live(d.ID) {
		s.state.Store(int32(prev))
		submissions.WithLabelValues(domain.KindName(domain.ErrNoDraft)).Inc()
		return domain.Order{}, &domain.Error{Kind: domain.ErrNoDraft, Message: "no order in progress"}
	}

	order, err := apigw.Do[domain.Order](ctx, s.gw, http.MethodPost, "/api/orders/", newCreateOrderRequest(d),
		apigw.Authenticated(), apigw.WithIdempotencyKey(d.ID))
	if err != nil {
		err = classify(err)
		s.state.Store(int32(StateFailed))
		submissions.WithLabelValues(domain.KindName(err)).Inc()
		s.log.WarnContext(ctx, "order submission failed",
			"draft_id", d.ID, "kind", domain.KindName(err), "error", err)
		return domain.Order{}, err
	}

	s.commit(ctx, d, order)
	s.state.Store(int32(StateCommitted))
	submissions.WithLabelValues("committed").Inc()
	return order, nil
}

// acquire moves the guard into Submitting from any other state and returns
// the state it left.
func (s *Submitter) acquire() (State, bool) {
	for {
		cur := s.state.Load()
		if State(cur) == StateSubmitting {
			return StateSubmitting, false
		}
		if s.state.CompareAndSwap(cur, int32(StateSubmitting)) {
			return State(cur), true
		}
	}
}

// commit runs the post-success steps. The order exists server-side at this
// point, so none of them can fail the submission.
func (s *Submitter) commit(ctx context.Context, d domain.DraftOrder, order domain.Order) {
	s.log.InfoContext(ctx, "order submitted",
		"draft_id", d.ID, "order_id", order.ID, "order_no", order.OrderNo, "source", d.Source)

	if d.Source == domain.DraftSourceCart && s.cart != nil {
		if err := s.cart.RemoveSubmittedItems(ctx, d.ProductIDs()); err != nil {
			s.log.ErrorContext(ctx, "failed to remove submitted items from cart",
				"draft_id", d.ID, "order_id", order.ID, "error", err)
		}
	}

	if !s.drafts.Discard(d.ID) {
		s.log.DebugContext(ctx, "draft replaced during submission, keeping the newer one", "draft_id", d.ID)
	}

	addressID := int64(0)
	if d.Address != nil {
		addressID = d.Address.ID
	}
	evt := events.OrderSubmitted{
		DraftID:     d.ID,
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		Source:      d.Source,
		AddressID:   addressID,
		Items:       d.Items,
		TotalAmount: d.Total(),
		SubmittedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WarnContext(ctx, "failed to publish order event", "order_no", order.OrderNo, "error", err)
	}
}

func validate(d domain.DraftOrder) error {
	if len(d.Items) == 0 {
		return domain.Validationf("there is nothing to order")
	}
	for _, it := range d.Items {
		if it.Quantity < 1 {
			return domain.Validationf("quantity of %s must be at least 1", it.Name)
		}
	}
	if d.Address == nil {
		return &domain.Error{Kind: domain.ErrNoAddress, Message: "please choose a shipping address"}
	}
	return nil
}

func newCreateOrderRequest(d domain.DraftOrder) createOrderRequest {
	items := make([]createOrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, createOrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     json.Number(it.UnitPrice.StringFixed(2)),
		})
	}
	return createOrderRequest{AddressID: d.Address.ID, Items: items}
}

// classify marks server-side rejections of the order itself (stock, price
// or address problems) as business conflicts.
func classify(err error) error {
	if !errors.Is(err, domain.ErrRequest) {
		return err
	}
	var e *domain.Error
	if !errors.As(err, &e) {
		return err
	}
	switch {
	case e.Code != "":
		return domain.Reclassify(err, domain.ErrBusinessConflict)
	case e.Status == http.StatusBadRequest, e.Status == http.StatusConflict, e.Status == http.StatusUnprocessableEntity:
		return domain.Reclassify(err, domain.ErrBusinessConflict)
	default:
		return err
	}
}
