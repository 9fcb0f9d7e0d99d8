package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AchAffand/SuratJalan-sub001/internal/db"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// DeliveryNoteRepository defines the interface for delivery note persistence
type DeliveryNoteRepository interface {
	List(ctx context.Context) ([]*model.DeliveryNote, error)
	GetByID(ctx context.Context, id string) (*model.DeliveryNote, error)
	Create(ctx context.Context, note *model.DeliveryNote) (*model.DeliveryNote, error)
	Patch(ctx context.Context, id string, fields map[string]interface{}) (*model.DeliveryNote, error)
	Delete(ctx context.Context, id string) error
	FindByPONumber(ctx context.Context, poNumber string) ([]*model.DeliveryNote, error)
}

// deliveryNoteRepository implements DeliveryNoteRepository
type deliveryNoteRepository struct {
	db *gorm.DB
}

// NewDeliveryNoteRepository creates a new delivery note repository
func NewDeliveryNoteRepository(db *gorm.DB) DeliveryNoteRepository {
	return &deliveryNoteRepository{db: db}
}

// List lists all delivery notes ordered by last update, newest first
func (r *deliveryNoteRepository) List(ctx context.Context) ([]*model.DeliveryNote, error) {
	var notes []*model.DeliveryNote
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// GetByID gets a delivery note by ID
func (r *deliveryNoteRepository) GetByID(ctx context.Context, id string) (*model.DeliveryNote, error) {
	var note model.DeliveryNote
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&note).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// Create inserts a new delivery note
func (r *deliveryNoteRepository) Create(ctx context.Context, note *model.DeliveryNote) (*model.DeliveryNote, error) {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// Patch applies a partial column update to a note and returns the
// authoritative row as stored, including server-assigned timestamps
func (r *deliveryNoteRepository) Patch(ctx context.Context, id string, fields map[string]interface{}) (*model.DeliveryNote, error) {
	result := r.db.WithContext(ctx).
		Model(&model.DeliveryNote{}).
		Where("uuid = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a delivery note by ID
func (r *deliveryNoteRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&model.DeliveryNote{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByPONumber finds all delivery notes currently referencing a PO number
func (r *deliveryNoteRepository) FindByPONumber(ctx context.Context, poNumber string) ([]*model.DeliveryNote, error) {
	var notes []*model.DeliveryNote
	err := r.db.WithContext(ctx).
		Where("po_number = ?", poNumber).
		Order("created_at").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}
