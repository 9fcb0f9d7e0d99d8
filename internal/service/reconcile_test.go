package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func notesWithWeights(poNumber string, weights ...*float64) []*model.DeliveryNote {
	notes := make([]*model.DeliveryNote, 0, len(weights))
	for _, w := range weights {
		notes = append(notes, &model.DeliveryNote{
			PONumber:  strPtr(poNumber),
			NetWeight: w,
		})
	}
	return notes
}

func TestReconcilePOSumsRecordedWeights(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	// A note with no recorded weight contributes zero
	noteRepo.On("FindByPONumber", mock.Anything, "PO-100").
		Return(notesWithWeights("PO-100", floatPtr(10.5), nil, floatPtr(4.5)), nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-100").
		Return(&model.PurchaseOrder{
			Base:         model.Base{UUID: "po-uuid"},
			PONumber:     "PO-100",
			TotalTonnage: 100,
		}, nil)
	poRepo.On("UpdateTonnage", mock.Anything, "po-uuid", 15.0, 85.0, model.POStatusPartial).
		Return(nil)

	err := reconciler.ReconcilePO(context.Background(), "PO-100")
	require.NoError(t, err)

	noteRepo.AssertExpectations(t)
	poRepo.AssertExpectations(t)
}

func TestReconcilePORemainingNeverNegative(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	// Shipped beyond the ordered total clamps remaining at zero
	noteRepo.On("FindByPONumber", mock.Anything, "PO-101").
		Return(notesWithWeights("PO-101", floatPtr(60), floatPtr(55)), nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-101").
		Return(&model.PurchaseOrder{
			Base:         model.Base{UUID: "po-uuid"},
			PONumber:     "PO-101",
			TotalTonnage: 100,
		}, nil)
	poRepo.On("UpdateTonnage", mock.Anything, "po-uuid", 115.0, 0.0, model.POStatusCompleted).
		Return(nil)

	err := reconciler.ReconcilePO(context.Background(), "PO-101")
	require.NoError(t, err)

	poRepo.AssertExpectations(t)
}

func TestReconcilePOStatusDerivation(t *testing.T) {
	tests := []struct {
		name    string
		shipped float64
		total   float64
		want    model.POStatus
	}{
		{"nothing shipped", 0, 100, model.POStatusActive},
		{"partially shipped", 40, 100, model.POStatusPartial},
		{"exactly fulfilled", 100, 100, model.POStatusCompleted},
		{"over fulfilled", 120, 100, model.POStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, model.DerivePOStatus(tt.shipped, tt.total))
		})
	}
}

func TestReconcilePOUnknownOrderSkipped(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	noteRepo.On("FindByPONumber", mock.Anything, "PO-GHOST").
		Return(notesWithWeights("PO-GHOST", floatPtr(5)), nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-GHOST").
		Return(nil, repository.ErrNotFound)

	// No matching order record is not an error, and nothing is written
	err := reconciler.ReconcilePO(context.Background(), "PO-GHOST")
	require.NoError(t, err)

	poRepo.AssertNotCalled(t, "UpdateTonnage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcilePOChangeNoOpWhenUnchanged(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	require.NoError(t, reconciler.ReconcilePOChange(context.Background(), strPtr("PO-100"), strPtr("PO-100")))
	require.NoError(t, reconciler.ReconcilePOChange(context.Background(), nil, nil))

	noteRepo.AssertNotCalled(t, "FindByPONumber", mock.Anything, mock.Anything)
	poRepo.AssertNotCalled(t, "GetByPONumber", mock.Anything, mock.Anything)
}

func TestReconcilePOChangeUpdatesBothOrders(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	// Moving a 30t note from PO-A to PO-B shrinks A and grows B
	noteRepo.On("FindByPONumber", mock.Anything, "PO-A").
		Return([]*model.DeliveryNote{}, nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-A").
		Return(&model.PurchaseOrder{
			Base:         model.Base{UUID: "uuid-a"},
			PONumber:     "PO-A",
			TotalTonnage: 50,
		}, nil)
	poRepo.On("UpdateTonnage", mock.Anything, "uuid-a", 0.0, 50.0, model.POStatusActive).
		Return(nil)

	noteRepo.On("FindByPONumber", mock.Anything, "PO-B").
		Return(notesWithWeights("PO-B", floatPtr(30)), nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-B").
		Return(&model.PurchaseOrder{
			Base:         model.Base{UUID: "uuid-b"},
			PONumber:     "PO-B",
			TotalTonnage: 30,
		}, nil)
	poRepo.On("UpdateTonnage", mock.Anything, "uuid-b", 30.0, 0.0, model.POStatusCompleted).
		Return(nil)

	err := reconciler.ReconcilePOChange(context.Background(), strPtr("PO-A"), strPtr("PO-B"))
	require.NoError(t, err)

	noteRepo.AssertExpectations(t)
	poRepo.AssertExpectations(t)
}

func TestReconcilePOChangeClearedReference(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	noteRepo.On("FindByPONumber", mock.Anything, "PO-A").
		Return([]*model.DeliveryNote{}, nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-A").
		Return(&model.PurchaseOrder{
			Base:         model.Base{UUID: "uuid-a"},
			PONumber:     "PO-A",
			TotalTonnage: 50,
		}, nil)
	poRepo.On("UpdateTonnage", mock.Anything, "uuid-a", 0.0, 50.0, model.POStatusActive).
		Return(nil)

	// Clearing the reference reconciles only the old order
	err := reconciler.ReconcilePOChange(context.Background(), strPtr("PO-A"), nil)
	require.NoError(t, err)

	noteRepo.AssertNumberOfCalls(t, "FindByPONumber", 1)
}

func TestReconcileAllContinuesPastFailures(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	reconciler := NewReconciler(noteRepo, poRepo, cache.NewNoopClient())

	poRepo.On("List", mock.Anything).Return([]*model.PurchaseOrder{
		{Base: model.Base{UUID: "uuid-a"}, PONumber: "PO-A", TotalTonnage: 50},
		{Base: model.Base{UUID: "uuid-b"}, PONumber: "PO-B", TotalTonnage: 50},
	}, nil)

	noteRepo.On("FindByPONumber", mock.Anything, "PO-A").
		Return(nil, errors.New("connection reset"))

	noteRepo.On("FindByPONumber", mock.Anything, "PO-B").
		Return(notesWithWeights("PO-B", floatPtr(10)), nil)
	poRepo.On("GetByPONumber", mock.Anything, "PO-B").
		Return(&model.PurchaseOrder{
			Base:         model.Base{UUID: "uuid-b"},
			PONumber:     "PO-B",
			TotalTonnage: 50,
		}, nil)
	poRepo.On("UpdateTonnage", mock.Anything, "uuid-b", 10.0, 40.0, model.POStatusPartial).
		Return(nil)

	// One failing order does not stop the sweep
	err := reconciler.ReconcileAll(context.Background())
	require.NoError(t, err)

	noteRepo.AssertNumberOfCalls(t, "FindByPONumber", 2)
}
