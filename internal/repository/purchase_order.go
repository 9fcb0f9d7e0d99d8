package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AchAffand/SuratJalan-sub001/internal/db"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	List(ctx context.Context) ([]*model.PurchaseOrder, error)
	GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error)
	GetByPONumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error)
	Create(ctx context.Context, po *model.PurchaseOrder) (*model.PurchaseOrder, error)
	UpdateTonnage(ctx context.Context, id string, shipped, remaining float64, status model.POStatus) error
}

// purchaseOrderRepository implements PurchaseOrderRepository
type purchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

// List lists all purchase orders ordered by creation, newest first
func (r *purchaseOrderRepository) List(ctx context.Context) ([]*model.PurchaseOrder, error) {
	var orders []*model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID gets a purchase order by ID
func (r *purchaseOrderRepository) GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&po).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// GetByPONumber gets a purchase order by its PO number join key
func (r *purchaseOrderRepository) GetByPONumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Where("po_number = ?", poNumber).First(&po).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// Create inserts a new purchase order
func (r *purchaseOrderRepository) Create(ctx context.Context, po *model.PurchaseOrder) (*model.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return nil, err
	}
	return po, nil
}

// UpdateTonnage writes the recomputed shipped/remaining tonnage and status
// back to a purchase order. This is a plain read-modify-write with no row
// versioning, concurrent writers follow last-write-wins.
func (r *purchaseOrderRepository) UpdateTonnage(ctx context.Context, id string, shipped, remaining float64, status model.POStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.PurchaseOrder{}).
		Where("uuid = ?", id).
		Updates(map[string]interface{}{
			"shipped_tonnage":   shipped,
			"remaining_tonnage": remaining,
			"status":            status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
