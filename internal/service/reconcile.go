package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
)

// Reconciler recomputes purchase order shipped/remaining tonnage and status
// from the delivery notes currently referencing each PO number.
//
// The per-change routine runs only when a note's PO link changes. PO tonnage
// fields are therefore eventually-consistent summaries: each update is an
// independent read-then-write with no cross-record transaction, and a failed
// reconciliation leaves the note update standing with a stale PO summary.
// The periodic sweep (ReconcileAll) closes that gap.
type Reconciler struct {
	noteRepo repository.DeliveryNoteRepository
	poRepo   repository.PurchaseOrderRepository
	cache    cache.CacheClient
}

// NewReconciler creates a new reconciler
func NewReconciler(
	noteRepo repository.DeliveryNoteRepository,
	poRepo repository.PurchaseOrderRepository,
	cacheClient cache.CacheClient,
) *Reconciler {
	return &Reconciler{
		noteRepo: noteRepo,
		poRepo:   poRepo,
		cache:    cacheClient,
	}
}

// poNumbersEqual treats two absent PO references as equal
func poNumbersEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// ReconcilePOChange recomputes both purchase orders affected by a note's PO
// reference moving from oldPO to newPO. A no-op when the reference did not
// change, performing zero reads and zero writes.
func (r *Reconciler) ReconcilePOChange(ctx context.Context, oldPO, newPO *string) error {
	if poNumbersEqual(oldPO, newPO) {
		return nil
	}

	for _, po := range []*string{oldPO, newPO} {
		if po == nil || *po == "" {
			continue
		}
		if err := r.ReconcilePO(ctx, *po); err != nil {
			return errors.Wrapf(err, "failed to reconcile purchase order %s", *po)
		}
	}

	return nil
}

// ReconcilePO recomputes one purchase order from its current delivery notes.
// A PO number with no matching purchase order record is skipped: the join
// key is a loose string with no enforced foreign key, notes may legitimately
// reference orders this system never stored.
func (r *Reconciler) ReconcilePO(ctx context.Context, poNumber string) error {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	notes, err := r.noteRepo.FindByPONumber(ctx, poNumber)
	if err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		return errors.Wrap(err, "failed to load delivery notes for reconciliation")
	}

	var shipped float64
	for _, note := range notes {
		if note.NetWeight != nil {
			shipped += *note.NetWeight
		}
	}

	po, err := r.poRepo.GetByPONumber(ctx, poNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("po_number", poNumber).
				Warn("Skipping reconciliation for unknown purchase order")
			return nil
		}
		collector.RecordError(metrics.ErrorTypeDatabase)
		return errors.Wrap(err, "failed to load purchase order for reconciliation")
	}

	remaining := model.RemainingTonnage(po.TotalTonnage, shipped)
	status := model.DerivePOStatus(shipped, po.TotalTonnage)

	if err := r.poRepo.UpdateTonnage(ctx, po.UUID, shipped, remaining, status); err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		return errors.Wrap(err, "failed to write purchase order tonnage")
	}

	if err := r.cache.DeletePurchaseOrder(ctx, poNumber); err != nil {
		logrus.WithError(err).Warn("Failed to evict purchase order from cache")
	}

	collector.RecordOperation(metrics.OperationTypeReconcile, time.Since(startTime))

	logrus.WithFields(logrus.Fields{
		"po_number": poNumber,
		"shipped":   shipped,
		"remaining": remaining,
		"status":    status,
	}).Info("Reconciled purchase order")

	return nil
}

// ReconcileAll recomputes every purchase order from the current delivery
// notes. This is the fallback sweep run by the worker: note creates, deletes
// and weight edits do not trigger per-change reconciliation, the sweep is
// what makes their POs converge.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	orders, err := r.poRepo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list purchase orders for sweep")
	}

	logrus.Infof("Reconciling %d purchase orders", len(orders))

	for _, po := range orders {
		if err := r.ReconcilePO(ctx, po.PONumber); err != nil {
			logrus.WithError(err).WithField("po_number", po.PONumber).
				Error("Failed to reconcile purchase order during sweep")
			// Continue with the remaining orders
		}
	}

	return nil
}
