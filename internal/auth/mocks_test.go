package auth

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/domain"
)

type call struct {
	Method string
	Path   string
	Body   any
}

type MockCaller struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
	err       error
}

func (m *MockCaller) Call(_ context.Context, method, path string, body any, _ ...apigw.CallOption) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{Method: method, Path: path, Body: body})
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.responses[method+" "+path]), nil
}

func (m *MockCaller) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

type MockIdentity struct {
	authenticated bool
	token         string
	user          *domain.User
	signOuts      int
	signOutErr    error
}

func (m *MockIdentity) Authenticated() bool { return m.authenticated }

func (m *MockIdentity) SignIn(_ context.Context, token string, user *domain.User) error {
	m.authenticated = true
	m.token = token
	m.user = user
	return nil
}

func (m *MockIdentity) SignOut(context.Context) error {
	m.signOuts++
	m.authenticated = false
	m.token = ""
	m.user = nil
	return m.signOutErr
}

type MockDrafts struct {
	draft *domain.DraftOrder
}

func (m *MockDrafts) Current() (domain.DraftOrder, bool) {
	if m.draft == nil {
		return domain.DraftOrder{}, false
	}
	return *m.draft, true
}
