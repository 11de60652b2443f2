package testutil

import (
	"context"

	"github.com/homeshine/portal-front/internal/backend"
	"github.com/homeshine/portal-front/internal/session"
	"github.com/stretchr/testify/mock"
)

// MockExchanger mocks the backend token-exchange collaborator
type MockExchanger struct {
	mock.Mock
}

func (m *MockExchanger) ExchangeGoogleCode(ctx context.Context, role session.Role, code string) (*backend.ExchangeResult, error) {
	args := m.Called(ctx, role, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ExchangeResult), args.Error(1)
}

// MockAdminClient mocks the backend admin-login collaborator
type MockAdminClient struct {
	mock.Mock
}

func (m *MockAdminClient) AdminLogin(ctx context.Context, phone, password string) (string, error) {
	args := m.Called(ctx, phone, password)
	return args.String(0), args.Error(1)
}
