// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

type MockBundleRepositoryInterface struct {
	mock.Mock
}

func (m *MockBundleRepositoryInterface) Get(ctx context.Context, id string) (*model.Bundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bundle), args.Error(1)
}

func (m *MockBundleRepositoryInterface) List(ctx context.Context) ([]model.Bundle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Bundle), args.Error(1)
}

func (m *MockBundleRepositoryInterface) Upsert(ctx context.Context, b *model.Bundle) (*model.Bundle, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bundle), args.Error(1)
}
