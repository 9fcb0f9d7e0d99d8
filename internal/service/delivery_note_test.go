package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/notestore"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
)

func newTestService(noteRepo *MockDeliveryNoteRepository, poRepo *MockPurchaseOrderRepository, debounce time.Duration) *DeliveryNoteService {
	return NewDeliveryNoteService(
		noteRepo,
		notestore.New(),
		cache.NewNoopClient(),
		nil,
		NewNotifier(nil, ""),
		NewReconciler(noteRepo, poRepo, cache.NewNoopClient()),
		debounce,
	)
}

func seedNote(svc *DeliveryNoteService, note *model.DeliveryNote) {
	svc.store.Put(note)
}

func testNote(id string) *model.DeliveryNote {
	return &model.DeliveryNote{
		Base: model.Base{
			UUID:      id,
			UpdatedAt: time.Now().Add(-time.Hour),
		},
		ShipmentDate: time.Now().Add(-24 * time.Hour),
		VehiclePlate: "B 9470 UIV",
		DriverName:   "Budi Santoso",
		NoteNumber:   "SJ-2024-0001",
		Destination:  "Gudang Cikarang",
		Status:       model.NoteStatusAwaiting,
		Company:      model.CompanySinarJaya,
	}
}

func TestUpdateInstallsAuthoritativeRecord(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	seedNote(svc, testNote("id-1"))

	// The persistent store tweaks the record (trigger-set status), the
	// returned row is what must land in the working set
	authoritative := testNote("id-1")
	authoritative.DriverName = "Agus Wijaya"
	authoritative.Status = model.NoteStatusInTransit
	authoritative.UpdatedAt = time.Now()

	noteRepo.On("Patch", mock.Anything, "id-1", map[string]interface{}{
		"driver_name": "Agus Wijaya",
	}).Return(authoritative, nil)

	driver := "Agus Wijaya"
	got, err := svc.Update(context.Background(), "id-1", &UpdateNoteRequest{DriverName: &driver})
	require.NoError(t, err)
	require.Equal(t, model.NoteStatusInTransit, got.Status)

	stored, ok := svc.store.Get("id-1")
	require.True(t, ok)
	require.Equal(t, authoritative, stored)

	noteRepo.AssertExpectations(t)
}

func TestUpdateRollsBackOnWriteFailure(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	prior := testNote("id-1")
	seedNote(svc, prior)

	noteRepo.On("Patch", mock.Anything, "id-1", mock.Anything).
		Return(nil, errors.New("connection reset"))

	driver := "Agus Wijaya"
	_, err := svc.Update(context.Background(), "id-1", &UpdateNoteRequest{DriverName: &driver})
	require.Error(t, err)

	// The store holds the exact prior snapshot again
	stored, ok := svc.store.Get("id-1")
	require.True(t, ok)
	require.Equal(t, prior, stored)
}

func TestUpdateUnknownNote(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	driver := "Agus Wijaya"
	_, err := svc.Update(context.Background(), "missing", &UpdateNoteRequest{DriverName: &driver})
	require.ErrorIs(t, err, repository.ErrNotFound)

	noteRepo.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateRejectsConflictingPOFields(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	seedNote(svc, testNote("id-1"))

	po := "PO-100"
	_, err := svc.Update(context.Background(), "id-1", &UpdateNoteRequest{PONumber: &po, ClearPO: true})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUnrelatedEditSkipsReconciliation(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	po := "PO-100"
	prior := testNote("id-1")
	prior.PONumber = &po
	seedNote(svc, prior)

	authoritative := prior.Clone()
	authoritative.Remarks = "muatan penuh"
	noteRepo.On("Patch", mock.Anything, "id-1", mock.Anything).
		Return(authoritative, nil)

	remarks := "muatan penuh"
	_, err := svc.Update(context.Background(), "id-1", &UpdateNoteRequest{Remarks: &remarks})
	require.NoError(t, err)

	noteRepo.AssertNotCalled(t, "FindByPONumber", mock.Anything, mock.Anything)
	poRepo.AssertNotCalled(t, "GetByPONumber", mock.Anything, mock.Anything)
}

func TestUpdatePOChangeTriggersReconciliation(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	oldPO := "PO-OLD"
	newPO := "PO-NEW"
	prior := testNote("id-1")
	prior.PONumber = &oldPO
	seedNote(svc, prior)

	authoritative := prior.Clone()
	authoritative.PONumber = &newPO
	noteRepo.On("Patch", mock.Anything, "id-1", mock.Anything).
		Return(authoritative, nil)

	for _, poNumber := range []string{"PO-OLD", "PO-NEW"} {
		noteRepo.On("FindByPONumber", mock.Anything, poNumber).
			Return([]*model.DeliveryNote{}, nil)
		poRepo.On("GetByPONumber", mock.Anything, poNumber).
			Return(&model.PurchaseOrder{
				Base:         model.Base{UUID: "uuid-" + poNumber},
				PONumber:     poNumber,
				TotalTonnage: 100,
			}, nil)
		poRepo.On("UpdateTonnage", mock.Anything, "uuid-"+poNumber, 0.0, 100.0, model.POStatusActive).
			Return(nil)
	}

	_, err := svc.Update(context.Background(), "id-1", &UpdateNoteRequest{PONumber: &newPO})
	require.NoError(t, err)

	poRepo.AssertExpectations(t)
}

func TestUpdateReconcileFailureKeepsNote(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	newPO := "PO-NEW"
	prior := testNote("id-1")
	seedNote(svc, prior)

	authoritative := prior.Clone()
	authoritative.PONumber = &newPO
	noteRepo.On("Patch", mock.Anything, "id-1", mock.Anything).
		Return(authoritative, nil)
	noteRepo.On("FindByPONumber", mock.Anything, "PO-NEW").
		Return(nil, errors.New("connection reset"))

	note, err := svc.Update(context.Background(), "id-1", &UpdateNoteRequest{PONumber: &newPO})
	require.ErrorIs(t, err, ErrReconcileFailed)
	require.NotNil(t, note)
	require.Equal(t, &newPO, note.PONumber)

	// No rollback: the note edit is committed, only the PO summary is stale
	stored, ok := svc.store.Get("id-1")
	require.True(t, ok)
	require.Equal(t, &newPO, stored.PONumber)
}

func TestUpdateDebouncedCoalescesEdits(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, 20*time.Millisecond)

	seedNote(svc, testNote("id-1"))

	authoritative := testNote("id-1")
	authoritative.DriverName = "Agus Wijaya"
	authoritative.Remarks = "muatan penuh"

	// Both edits land in one write
	flushed := make(chan struct{})
	noteRepo.On("Patch", mock.Anything, "id-1", map[string]interface{}{
		"driver_name": "Agus Wijaya",
		"remarks":     "muatan penuh",
	}).Return(authoritative, nil).Once().Run(func(mock.Arguments) {
		close(flushed)
	})

	driver := "Agus Wijaya"
	first, err := svc.UpdateDebounced(context.Background(), "id-1", &UpdateNoteRequest{DriverName: &driver})
	require.NoError(t, err)
	require.Equal(t, "Agus Wijaya", first.DriverName)

	remarks := "muatan penuh"
	second, err := svc.UpdateDebounced(context.Background(), "id-1", &UpdateNoteRequest{Remarks: &remarks})
	require.NoError(t, err)
	require.Equal(t, "Agus Wijaya", second.DriverName)
	require.Equal(t, "muatan penuh", second.Remarks)

	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("debounced write never fired")
	}

	noteRepo.AssertExpectations(t)
	noteRepo.AssertNumberOfCalls(t, "Patch", 1)
}

func TestUpdateDebouncedRollbackRestoresFirstSnapshot(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, 10*time.Millisecond)

	prior := testNote("id-1")
	seedNote(svc, prior)

	noteRepo.On("Patch", mock.Anything, "id-1", mock.Anything).
		Return(nil, errors.New("connection reset"))

	driver := "Agus Wijaya"
	_, err := svc.UpdateDebounced(context.Background(), "id-1", &UpdateNoteRequest{DriverName: &driver})
	require.NoError(t, err)

	remarks := "muatan penuh"
	_, err = svc.UpdateDebounced(context.Background(), "id-1", &UpdateNoteRequest{Remarks: &remarks})
	require.NoError(t, err)

	// The whole burst rolls back to the snapshot before its first edit
	require.Eventually(t, func() bool {
		stored, ok := svc.store.Get("id-1")
		return ok && stored.DriverName == prior.DriverName && stored.Remarks == prior.Remarks
	}, time.Second, 10*time.Millisecond)
}

func TestCreateStartsAwaiting(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	noteRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.DeliveryNote")).
		Return(testNote("id-new"), nil)

	note, err := svc.Create(context.Background(), &CreateNoteRequest{
		ShipmentDate: time.Now(),
		VehiclePlate: "B 9470 UIV",
		DriverName:   "Budi Santoso",
		NoteNumber:   "SJ-2024-0002",
		Destination:  "Gudang Cikarang",
		Company:      string(model.CompanySinarJaya),
	})
	require.NoError(t, err)
	require.Equal(t, model.NoteStatusAwaiting, note.Status)

	// The new note is immediately visible in the working set
	_, ok := svc.store.Get("id-new")
	require.True(t, ok)

	created := noteRepo.Calls[0].Arguments.Get(1).(*model.DeliveryNote)
	require.NotEmpty(t, created.UUID)
	require.Equal(t, model.NoteStatusAwaiting, created.Status)
}

func TestCreateRejectsUnknownCompany(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	_, err := svc.Create(context.Background(), &CreateNoteRequest{
		ShipmentDate: time.Now(),
		VehiclePlate: "B 9470 UIV",
		DriverName:   "Budi Santoso",
		NoteNumber:   "SJ-2024-0002",
		Destination:  "Gudang Cikarang",
		Company:      "PT Tidak Terdaftar",
	})
	require.ErrorIs(t, err, ErrValidation)

	noteRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteRemovesFromWorkingSet(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	seedNote(svc, testNote("id-1"))

	noteRepo.On("Delete", mock.Anything, "id-1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "id-1"))

	_, ok := svc.store.Get("id-1")
	require.False(t, ok)

	// Deletes rely on the sweep, not per-change reconciliation
	noteRepo.AssertNotCalled(t, "FindByPONumber", mock.Anything, mock.Anything)
}

func TestPrintMarksInTransit(t *testing.T) {
	noteRepo := new(MockDeliveryNoteRepository)
	poRepo := new(MockPurchaseOrderRepository)
	svc := newTestService(noteRepo, poRepo, time.Millisecond)

	seedNote(svc, testNote("id-1"))

	authoritative := testNote("id-1")
	authoritative.Status = model.NoteStatusInTransit
	noteRepo.On("Patch", mock.Anything, "id-1", map[string]interface{}{
		"status": string(model.NoteStatusInTransit),
	}).Return(authoritative, nil)

	note, err := svc.Print(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, model.NoteStatusInTransit, note.Status)
}
