package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
)

// PurchaseOrderService reads and creates purchase orders. Tonnage summary
// fields are owned by the reconciler, this service never writes them
// directly.
type PurchaseOrderService struct {
	poRepo     repository.PurchaseOrderRepository
	cache      cache.CacheClient
	reconciler *Reconciler
}

func NewPurchaseOrderService(poRepo repository.PurchaseOrderRepository, cacheClient cache.CacheClient, reconciler *Reconciler) *PurchaseOrderService {
	return &PurchaseOrderService{
		poRepo:     poRepo,
		cache:      cacheClient,
		reconciler: reconciler,
	}
}

// List returns all purchase orders, newest first
func (s *PurchaseOrderService) List(ctx context.Context) ([]*model.PurchaseOrder, error) {
	orders, err := s.poRepo.List(ctx)
	if err != nil {
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeDatabase)
		return nil, errors.Wrap(err, "failed to list purchase orders")
	}
	return orders, nil
}

// Get returns one purchase order by id
func (s *PurchaseOrderService) Get(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	po, err := s.poRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeDatabase)
		return nil, errors.Wrap(err, "failed to get purchase order")
	}
	return po, nil
}

// GetByNumber returns one purchase order by its PO number, reading through
// the shared cache
func (s *PurchaseOrderService) GetByNumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	if po, err := s.cache.GetPurchaseOrder(ctx, poNumber); err == nil && po != nil {
		return po, nil
	}

	po, err := s.poRepo.GetByPONumber(ctx, poNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeDatabase)
		return nil, errors.Wrap(err, "failed to get purchase order")
	}

	if err := s.cache.SetPurchaseOrder(ctx, po); err != nil {
		logrus.WithError(err).WithField("po_number", poNumber).Warn("Failed to cache purchase order")
	}
	return po, nil
}

// Create inserts a new purchase order and reconciles it immediately, so a
// PO registered after its delivery notes starts with a correct summary.
func (s *PurchaseOrderService) Create(ctx context.Context, req *CreatePORequest) (*model.PurchaseOrder, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	po := &model.PurchaseOrder{
		Base: model.Base{
			UUID: uuid.New().String(),
		},
		PONumber:         req.PONumber,
		BuyerName:        req.BuyerName,
		BuyerContact:     req.BuyerContact,
		TotalTonnage:     req.TotalTonnage,
		RemainingTonnage: req.TotalTonnage,
		Status:           model.POStatusActive,
	}

	po, err := s.poRepo.Create(ctx, po)
	if err != nil {
		collector.RecordOperation(metrics.OperationTypeFailed, time.Since(startTime))
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, errors.Wrap(err, "failed to create purchase order")
	}

	if err := s.reconciler.ReconcilePO(ctx, po.PONumber); err != nil {
		logrus.WithError(err).WithField("po_number", po.PONumber).
			Warn("Initial reconciliation failed, periodic sweep will converge")
	} else {
		// Re-read so the caller sees the reconciled summary
		if fresh, err := s.poRepo.GetByID(ctx, po.UUID); err == nil {
			po = fresh
		}
	}

	collector.RecordOperation(metrics.OperationTypeCreate, time.Since(startTime))
	return po, nil
}
