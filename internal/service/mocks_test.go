package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// Mock repositories for testing

type MockDeliveryNoteRepository struct {
	mock.Mock
}

func (m *MockDeliveryNoteRepository) List(ctx context.Context) ([]*model.DeliveryNote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DeliveryNote), args.Error(1)
}

func (m *MockDeliveryNoteRepository) GetByID(ctx context.Context, id string) (*model.DeliveryNote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryNote), args.Error(1)
}

func (m *MockDeliveryNoteRepository) Create(ctx context.Context, note *model.DeliveryNote) (*model.DeliveryNote, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryNote), args.Error(1)
}

func (m *MockDeliveryNoteRepository) Patch(ctx context.Context, id string, fields map[string]interface{}) (*model.DeliveryNote, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryNote), args.Error(1)
}

func (m *MockDeliveryNoteRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeliveryNoteRepository) FindByPONumber(ctx context.Context, poNumber string) ([]*model.DeliveryNote, error) {
	args := m.Called(ctx, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DeliveryNote), args.Error(1)
}

type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) List(ctx context.Context) ([]*model.PurchaseOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) GetByPONumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	args := m.Called(ctx, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, po *model.PurchaseOrder) (*model.PurchaseOrder, error) {
	args := m.Called(ctx, po)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) UpdateTonnage(ctx context.Context, id string, shipped, remaining float64, status model.POStatus) error {
	args := m.Called(ctx, id, shipped, remaining, status)
	return args.Error(0)
}
