// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/service"
)

type MockBundleService struct {
	mock.Mock
}

func (m *MockBundleService) Get(ctx context.Context, id string) (*model.Bundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bundle), args.Error(1)
}

func (m *MockBundleService) List(ctx context.Context) ([]model.Bundle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Bundle), args.Error(1)
}

func (m *MockBundleService) Seed(ctx context.Context, bundles []model.Bundle) error {
	args := m.Called(ctx, bundles)
	return args.Error(0)
}

type MockCartSubmitter struct {
	mock.Mock
}

func (m *MockCartSubmitter) Submit(ctx context.Context, req service.SubmitRequest) (*model.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmitResult), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Open(ctx context.Context, bundleID string) (*model.SessionView, error) {
	args := m.Called(ctx, bundleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionView), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id string) (*model.SessionView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionView), args.Error(1)
}

func (m *MockSessionService) Apply(ctx context.Context, id string, actions ...model.Action) (*model.SessionView, error) {
	args := m.Called(ctx, id, actions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionView), args.Error(1)
}

func (m *MockSessionService) Submit(ctx context.Context, id string) (*model.SubmitResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmitResult), args.Error(1)
}

func (m *MockSessionService) Close(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
