package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/notestore"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
	"github.com/AchAffand/SuratJalan-sub001/internal/search"
)

// pendingUpdate accumulates a burst of debounced edits for one note
type pendingUpdate struct {
	// prior is the authoritative snapshot before the first edit of the
	// burst, restored in full if the coalesced write fails
	prior  *model.DeliveryNote
	fields map[string]interface{}
	timer  *time.Timer
}

// DeliveryNoteService owns the delivery note lifecycle and the optimistic
// update flow over the in-memory note store.
type DeliveryNoteService struct {
	noteRepo   repository.DeliveryNoteRepository
	store      *notestore.Store
	cache      cache.CacheClient
	search     search.Client
	notifier   *Notifier
	reconciler *Reconciler
	debounce   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingUpdate
}

// NewDeliveryNoteService creates a new delivery note service. The search
// client may be nil, indexing is then skipped.
func NewDeliveryNoteService(
	noteRepo repository.DeliveryNoteRepository,
	store *notestore.Store,
	cacheClient cache.CacheClient,
	searchClient search.Client,
	notifier *Notifier,
	reconciler *Reconciler,
	debounce time.Duration,
) *DeliveryNoteService {
	return &DeliveryNoteService{
		noteRepo:   noteRepo,
		store:      store,
		cache:      cacheClient,
		search:     searchClient,
		notifier:   notifier,
		reconciler: reconciler,
		debounce:   debounce,
		pending:    make(map[string]*pendingUpdate),
	}
}

// LoadAll fills the in-memory store from the persistent store. Falls back
// to the shared cache when the database is unreachable, so a degraded
// instance can still serve reads.
func (s *DeliveryNoteService) LoadAll(ctx context.Context) error {
	notes, err := s.noteRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load delivery notes from database, trying cache")
		cached, cacheErr := s.cache.GetNoteList(ctx)
		if cacheErr != nil {
			return errors.Wrap(err, "failed to load delivery notes")
		}
		notes = cached
	} else {
		if err := s.cache.SetNoteList(ctx, notes); err != nil {
			logrus.WithError(err).Warn("Failed to cache delivery note list")
		}
	}

	s.store.Load(notes)
	metrics.GetMetricsCollector().SetGauge(metrics.GaugeCachedNotes, float64(s.store.Len()))
	return nil
}

// List returns all delivery notes ordered by last update, newest first
func (s *DeliveryNoteService) List(ctx context.Context) ([]*model.DeliveryNote, error) {
	if s.store.Len() == 0 {
		if err := s.LoadAll(ctx); err != nil {
			return nil, err
		}
	}
	return s.store.List(), nil
}

// Get returns one delivery note from the working set
func (s *DeliveryNoteService) Get(ctx context.Context, id string) (*model.DeliveryNote, error) {
	if s.store.Len() == 0 {
		if err := s.LoadAll(ctx); err != nil {
			return nil, err
		}
	}
	note, ok := s.store.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return note, nil
}

// Create inserts a new delivery note in status awaiting
func (s *DeliveryNoteService) Create(ctx context.Context, req *CreateNoteRequest) (*model.DeliveryNote, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	if !model.IsValidCompany(model.Company(req.Company)) {
		return nil, errInvalidCompany(req.Company)
	}

	note := &model.DeliveryNote{
		Base: model.Base{
			UUID: uuid.New().String(),
		},
		ShipmentDate: req.ShipmentDate,
		VehiclePlate: req.VehiclePlate,
		DriverName:   req.DriverName,
		NoteNumber:   req.NoteNumber,
		Destination:  req.Destination,
		PONumber:     req.PONumber,
		Status:       model.NoteStatusAwaiting,
		Sealed:       req.Sealed,
		SealNumbers:  model.SealNumbers(req.SealNumbers),
		Company:      model.Company(req.Company),
		Remarks:      req.Remarks,
	}

	note, err := s.noteRepo.Create(ctx, note)
	if err != nil {
		collector.RecordOperation(metrics.OperationTypeFailed, time.Since(startTime))
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, errors.Wrap(err, "failed to create delivery note")
	}

	s.store.Put(note)
	s.afterWrite(ctx, note)
	s.notifier.NotifyNoteEvent(note, EventNoteCreated)
	collector.RecordOperation(metrics.OperationTypeCreate, time.Since(startTime))

	return note, nil
}

// Update applies a partial edit through the optimistic flow: the merged
// record is installed in the store before the database write is issued, so
// any concurrent reader sees the edit immediately. On write failure the
// prior snapshot is restored and the error is returned.
//
// If the edit moves the note's PO reference, both affected purchase orders
// are reconciled afterward. A reconciliation failure does not undo the note
// update, the note is returned together with an ErrReconcileFailed error.
func (s *DeliveryNoteService) Update(ctx context.Context, id string, req *UpdateNoteRequest) (*model.DeliveryNote, error) {
	return s.update(ctx, id, req, EventNoteUpdated)
}

func (s *DeliveryNoteService) update(ctx context.Context, id string, req *UpdateNoteRequest, eventType string) (*model.DeliveryNote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prior, ok := s.store.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}

	// Synchronous step: install the optimistic merge before any I/O
	merged := req.Apply(prior)
	s.store.Put(merged)

	return s.commit(ctx, id, prior, req.Fields(), eventType)
}

// commit issues the authoritative write and reconciles the store with the
// result, rolling back to prior on failure.
func (s *DeliveryNoteService) commit(ctx context.Context, id string, prior *model.DeliveryNote, fields map[string]interface{}, eventType string) (*model.DeliveryNote, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	authoritative, err := s.noteRepo.Patch(ctx, id, fields)
	if err != nil {
		// Rollback: the store returns to the last known authoritative state
		s.store.Put(prior)
		collector.RecordRollback()
		collector.RecordOperation(metrics.OperationTypeFailed, time.Since(startTime))
		collector.RecordError(metrics.ErrorTypeDatabase)
		logrus.WithError(err).WithField("note_id", id).
			Error("Authoritative delivery note update failed, rolled back optimistic state")
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to update delivery note")
	}

	// The server-returned record wins over the optimistic guess
	s.store.Put(authoritative)
	s.afterWrite(ctx, authoritative)
	s.notifier.NotifyNoteEvent(authoritative, eventType)
	if authoritative.Status == model.NoteStatusCompleted && prior.Status != model.NoteStatusCompleted {
		s.notifier.NotifyNoteEvent(authoritative, EventNoteCompleted)
	}
	collector.RecordOperation(metrics.OperationTypeUpdate, time.Since(startTime))

	if !poNumbersEqual(prior.PONumber, authoritative.PONumber) {
		if err := s.reconciler.ReconcilePOChange(ctx, prior.PONumber, authoritative.PONumber); err != nil {
			// The note update stands, only the PO summary is stale
			logrus.WithError(err).WithField("note_id", id).
				Error("Purchase order reconciliation failed after note update")
			return authoritative, fmt.Errorf("%w: %v", ErrReconcileFailed, err)
		}
	}

	return authoritative, nil
}

// UpdateDebounced applies the optimistic merge immediately but delays the
// authoritative write by a quiet interval, so rapid sequential edits to the
// same note coalesce into one write. The merge/rollback contract is the
// same as Update, only when the authoritative call fires changes.
func (s *DeliveryNoteService) UpdateDebounced(ctx context.Context, id string, req *UpdateNoteRequest) (*model.DeliveryNote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return nil, fmt.Errorf("%w: empty update", ErrValidation)
	}

	prior, ok := s.store.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}

	merged := req.Apply(prior)
	s.store.Put(merged)

	s.mu.Lock()
	p, exists := s.pending[id]
	if !exists {
		p = &pendingUpdate{
			prior:  prior,
			fields: make(map[string]interface{}),
		}
		s.pending[id] = p
	}
	for k, v := range req.Fields() {
		p.fields[k] = v
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(s.debounce, func() {
		s.flushPending(id)
	})
	s.mu.Unlock()

	return merged, nil
}

// flushPending commits one note's coalesced debounced edits
func (s *DeliveryNoteService) flushPending(id string) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.commit(ctx, id, p.prior, p.fields, EventNoteUpdated); err != nil {
		logrus.WithError(err).WithField("note_id", id).
			Error("Debounced delivery note update failed")
	}
}

// FlushPending synchronously commits all outstanding debounced edits,
// called on shutdown
func (s *DeliveryNoteService) FlushPending(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id, p := range s.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.flushPending(id)
	}
}

// Print marks the note in-transit as a side effect of the operator
// initiating the print action, and returns the note for the rendering
// layer. Document generation itself happens outside this service.
func (s *DeliveryNoteService) Print(ctx context.Context, id string) (*model.DeliveryNote, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	status := string(model.NoteStatusInTransit)
	note, err := s.update(ctx, id, &UpdateNoteRequest{Status: &status}, EventNotePrinted)
	if err != nil {
		return note, err
	}

	collector.RecordOperation(metrics.OperationTypePrint, time.Since(startTime))
	return note, nil
}

// Delete removes a delivery note. Per the reconciliation contract, deleting
// a note does not trigger per-change reconciliation of its PO, the periodic
// sweep converges the summary.
func (s *DeliveryNoteService) Delete(ctx context.Context, id string) error {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	note, ok := s.store.Get(id)
	if !ok {
		return repository.ErrNotFound
	}

	if err := s.noteRepo.Delete(ctx, id); err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return errors.Wrap(err, "failed to delete delivery note")
	}

	s.store.Remove(id)
	if err := s.cache.InvalidateNoteList(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate note list cache")
	}
	if s.search != nil {
		if err := s.search.DeleteNote(ctx, id); err != nil {
			logrus.WithError(err).Warn("Failed to remove note from search index")
		}
	}
	s.notifier.NotifyNoteEvent(note, EventNoteDeleted)
	collector.RecordOperation(metrics.OperationTypeDelete, time.Since(startTime))
	metrics.GetMetricsCollector().SetGauge(metrics.GaugeCachedNotes, float64(s.store.Len()))

	return nil
}

// Search queries the delivery note search index
func (s *DeliveryNoteService) Search(ctx context.Context, query string) ([]json.RawMessage, error) {
	if s.search == nil {
		return nil, fmt.Errorf("%w: search is not configured", ErrValidation)
	}
	return s.search.SearchNotes(ctx, query)
}

// afterWrite refreshes the shared cache and search index, best effort
func (s *DeliveryNoteService) afterWrite(ctx context.Context, note *model.DeliveryNote) {
	if err := s.cache.InvalidateNoteList(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate note list cache")
	}
	if s.search != nil {
		if err := s.search.IndexNote(ctx, note); err != nil {
			logrus.WithError(err).Warn("Failed to index note for search")
		}
	}
	metrics.GetMetricsCollector().SetGauge(metrics.GaugeCachedNotes, float64(s.store.Len()))
}
