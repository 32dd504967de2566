package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medicamentos-etl/core/search"
)

// Client is a mock implementation of search.Client
type Client struct {
	mock.Mock
}

func (m *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *Client) CreateIndex(ctx context.Context, name string, spec search.IndexSpec) error {
	args := m.Called(ctx, name, spec)
	return args.Error(0)
}

func (m *Client) DeleteIndex(ctx context.Context, names ...string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}

func (m *Client) BulkIndex(ctx context.Context, index string, docs []search.Document) (search.BulkStats, error) {
	args := m.Called(ctx, index, docs)
	return args.Get(0).(search.BulkStats), args.Error(1)
}

func (m *Client) Refresh(ctx context.Context, index string) error {
	args := m.Called(ctx, index)
	return args.Error(0)
}

func (m *Client) Count(ctx context.Context, target string) (int64, error) {
	args := m.Called(ctx, target)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Client) AliasIndices(ctx context.Context, alias string) ([]string, error) {
	args := m.Called(ctx, alias)
	if v, ok := args.Get(0).([]string); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) UpdateAliases(ctx context.Context, actions []search.AliasAction) error {
	args := m.Called(ctx, actions)
	return args.Error(0)
}

func (m *Client) ListIndices(ctx context.Context, pattern string) ([]string, error) {
	args := m.Called(ctx, pattern)
	if v, ok := args.Get(0).([]string); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
