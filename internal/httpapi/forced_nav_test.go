package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/auth"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/draft"
	"github.com/fjod/shopflow/internal/logging"
	"github.com/fjod/shopflow/internal/session"
	"github.com/fjod/shopflow/internal/storage"
	"github.com/fjod/shopflow/internal/surface"
)

func TestExpiredTokenSendsShopperHome(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(upstream.Close)

	ctx := context.Background()
	sess, err := session.Open(ctx, storage.NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, sess.SignIn(ctx, "stale", &domain.User{ID: 1}))

	api := newTestAPI(t)
	api.recorder.Present(ctx, surface.To(surface.Checkout))
	gate := auth.NewGate(sess, draft.NewContext(), api.recorder, api.recorder, logging.Nop())
	gw := apigw.NewGateway(upstream.URL, time.Second, sess,
		apigw.WithHTTPClient(upstream.Client()), apigw.WithUnauthorizedHandler(gate))
	api.route(address.NewProvider(gw, logging.Nop()))

	rr := api.do(http.MethodGet, "/addresses", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	env := decode(t, rr.Body.Bytes())
	assert.Equal(t, "auth", env.Code)
	require.NotNil(t, env.Next)
	assert.Equal(t, surface.Home, env.Next.Surface)
	assert.Equal(t, []string{"login expired, please log in again"}, env.Notices)
	assert.False(t, sess.Authenticated())
}

func TestSubmitError_CarriesFlowDestination(t *testing.T) {
	api := newTestAPI(t)
	api.flow.next = surface.To(surface.Login)
	api.flow.err = &domain.Error{Kind: domain.ErrAuth, Message: "please log in first"}

	rr := api.do(http.MethodPost, "/checkout/submit", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	env := decode(t, rr.Body.Bytes())
	require.NotNil(t, env.Next)
	assert.Equal(t, surface.Login, env.Next.Surface)
}

// resettingBook stands in for any collaborator whose failure forced the
// shopper home without surfacing an auth error.
type resettingBook struct {
	MockAddressBook
	nav *surface.Recorder
}

func (b *resettingBook) List(ctx context.Context) ([]domain.Address, error) {
	b.nav.Reset(ctx, surface.To(surface.Home))
	return nil, &domain.Error{Kind: domain.ErrNetwork, Message: "network unavailable"}
}

func TestResetDuringRequestIsReported(t *testing.T) {
	api := newTestAPI(t)
	api.recorder.Present(context.Background(), surface.To(surface.Checkout))
	api.route(&resettingBook{nav: api.recorder})

	rr := api.do(http.MethodGet, "/addresses", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	env := decode(t, rr.Body.Bytes())
	require.NotNil(t, env.Next)
	assert.Equal(t, surface.Home, env.Next.Surface)
}

func TestPlainErrorsCarryNoDestination(t *testing.T) {
	api := newTestAPI(t)
	api.addresses.err = errors.New("boom")
	api.route(api.addresses)

	rr := api.do(http.MethodGet, "/addresses", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Nil(t, decode(t, rr.Body.Bytes()).Next)
}
