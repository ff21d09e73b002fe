package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

const listKey = "addresses"

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

type Provider struct {
	gw  apigw.Caller
	sfg singleflight.Group // collapses concurrent list reloads
	log *slog.Logger
}

func NewProvider(gw apigw.Caller, log *slog.Logger) *Provider {
	return &Provider{gw: gw, log: log}
}

// List fetches the shopper's addresses. Each call goes to the server;
// overlapping calls share one request. The shared request is not tied to
// any one caller's cancellation, and a caller whose context ends stops
// waiting without disturbing the others.
func (p *Provider) List(ctx context.Context) ([]domain.Address, error) {
	shared := context.WithoutCancel(ctx)
	ch := p.sfg.DoChan(listKey, func() (interface{}, error) {
		return apigw.Do[[]domain.Address](shared, p.gw, http.MethodGet, "/api/addresses/", nil, apigw.Authenticated())
	})

	select {
	case <-ctx.Done():
		return nil, &domain.Error{Kind: domain.ErrNetwork, Message: "request cancelled", Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]domain.Address(nil), res.Val.([]domain.Address)...), nil
	}
}

func (p *Provider) Get(ctx context.Context, id int64) (domain.Address, error) {
	return apigw.Do[domain.Address](ctx, p.gw, http.MethodGet, fmt.Sprintf("/api/addresses/%d", id), nil, apigw.Authenticated())
}

// PickDefaultOrFirst returns the default address, else the first one, else nil.
func PickDefaultOrFirst(addresses []domain.Address) *domain.Address {
	for i := range addresses {
		if addresses[i].IsDefault {
			a := addresses[i]
			return &a
		}
	}
	if len(addresses) > 0 {
		a := addresses[0]
		return &a
	}
	return nil
}

// SelectInteractively lists the addresses and lets the selector choose one.
// A cancelled selection returns domain.ErrSelectionCancelled; an empty
// address book returns domain.ErrNoAddress.
func (p *Provider) SelectInteractively(ctx context.Context, selector surface.AddressSelector) (domain.Address, error) {
	addresses, err := p.List(ctx)
	if err != nil {
		return domain.Address{}, err
	}
	if len(addresses) == 0 {
		return domain.Address{}, &domain.Error{Kind: domain.ErrNoAddress, Message: "please add a shipping address"}
	}

	chosen, err := selector.SelectAddress(ctx, addresses)
	if err != nil {
		if errors.Is(err, domain.ErrSelectionCancelled) {
			return domain.Address{}, err
		}
		return domain.Address{}, fmt.Errorf("select address: %w", err)
	}
	for _, a := range addresses {
		if a.ID == chosen.ID {
			return a, nil
		}
	}
	return domain.Address{}, domain.Validationf("address %d does not belong to this account", chosen.ID)
}

// ByID is a selector that picks a known address id, for surfaces that
// answer with an id rather than a callback.
func ByID(id int64) surface.AddressSelector {
	return surface.SelectorFunc(func(_ context.Context, addresses []domain.Address) (domain.Address, error) {
		for _, a := range addresses {
			if a.ID == id {
				return a, nil
			}
		}
		return domain.Address{}, domain.Validationf("address %d not found", id)
	})
}

type Input struct {
	RecipientName string `json:"name"`
	Phone         string `json:"phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	Detail        string `json:"detail"`
	IsDefault     bool   `json:"is_default"`
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.RecipientName) == "" {
		return domain.Validationf("please enter the recipient name")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return domain.Validationf("please enter a phone number")
	}
	if !phonePattern.MatchString(in.Phone) {
		return domain.Validationf("please enter a valid mobile number")
	}
	if strings.TrimSpace(in.Detail) == "" {
		return domain.Validationf("please enter the street address")
	}
	return nil
}

func (p *Provider) Create(ctx context.Context, in Input) (domain.Address, error) {
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	a, err := apigw.Do[domain.Address](ctx, p.gw, http.MethodPost, "/api/addresses/", in, apigw.Authenticated())
	if err != nil {
		return domain.Address{}, err
	}
	p.log.InfoContext(ctx, "address created", "address_id", a.ID, "default", a.IsDefault)
	return a, nil
}

func (p *Provider) Update(ctx context.Context, id int64, in Input) (domain.Address, error) {
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	return apigw.Do[domain.Address](ctx, p.gw, http.MethodPut, fmt.Sprintf("/api/addresses/%d", id), in, apigw.Authenticated())
}

func (p *Provider) Delete(ctx context.Context, id int64) error {
	_, err := p.gw.Call(ctx, http.MethodDelete, fmt.Sprintf("/api/addresses/%d", id), nil, apigw.Authenticated())
	return err
}
