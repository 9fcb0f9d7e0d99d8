package service

import (
	"fmt"
	"time"

	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// CreateNoteRequest defines the request to create a delivery note
type CreateNoteRequest struct {
	ShipmentDate time.Time `json:"shipment_date" validate:"required"`
	VehiclePlate string    `json:"vehicle_plate" validate:"required"`
	DriverName   string    `json:"driver_name" validate:"required"`
	NoteNumber   string    `json:"note_number" validate:"required"`
	Destination  string    `json:"destination" validate:"required"`
	PONumber     *string   `json:"po_number"`
	Sealed       bool      `json:"sealed"`
	SealNumbers  []string  `json:"seal_numbers"`
	Company      string    `json:"company" validate:"required"`
	Remarks      string    `json:"remarks"`
}

// UpdateNoteRequest defines a partial update to a delivery note. Nil fields
// are left untouched. ClearPO detaches the note from its purchase order:
// "no PO" is a valid state distinct from "not provided".
type UpdateNoteRequest struct {
	ShipmentDate *time.Time `json:"shipment_date"`
	VehiclePlate *string    `json:"vehicle_plate"`
	DriverName   *string    `json:"driver_name"`
	NoteNumber   *string    `json:"note_number"`
	Destination  *string    `json:"destination"`
	PONumber     *string    `json:"po_number"`
	ClearPO      bool       `json:"clear_po"`
	Status       *string    `json:"status"`
	NetWeight    *float64   `json:"net_weight"`
	Sealed       *bool      `json:"sealed"`
	SealNumbers  []string   `json:"seal_numbers"`
	Company      *string    `json:"company"`
	Remarks      *string    `json:"remarks"`
}

// IsEmpty reports whether the request carries no updates at all
func (r *UpdateNoteRequest) IsEmpty() bool {
	return r.ShipmentDate == nil && r.VehiclePlate == nil && r.DriverName == nil &&
		r.NoteNumber == nil && r.Destination == nil && r.PONumber == nil &&
		!r.ClearPO && r.Status == nil && r.NetWeight == nil && r.Sealed == nil &&
		r.SealNumbers == nil && r.Company == nil && r.Remarks == nil
}

// Apply merges the request over a snapshot of the note, stamping the update
// time. The input is not mutated.
func (r *UpdateNoteRequest) Apply(prior *model.DeliveryNote) *model.DeliveryNote {
	merged := prior.Clone()

	if r.ShipmentDate != nil {
		merged.ShipmentDate = *r.ShipmentDate
	}
	if r.VehiclePlate != nil {
		merged.VehiclePlate = *r.VehiclePlate
	}
	if r.DriverName != nil {
		merged.DriverName = *r.DriverName
	}
	if r.NoteNumber != nil {
		merged.NoteNumber = *r.NoteNumber
	}
	if r.Destination != nil {
		merged.Destination = *r.Destination
	}
	if r.ClearPO {
		merged.PONumber = nil
	} else if r.PONumber != nil {
		po := *r.PONumber
		merged.PONumber = &po
	}
	if r.Status != nil {
		merged.Status = model.NoteStatus(*r.Status)
	}
	if r.NetWeight != nil {
		w := *r.NetWeight
		merged.NetWeight = &w
	}
	if r.Sealed != nil {
		merged.Sealed = *r.Sealed
	}
	if r.SealNumbers != nil {
		merged.SealNumbers = append(model.SealNumbers{}, r.SealNumbers...)
	}
	if r.Company != nil {
		merged.Company = model.Company(*r.Company)
	}
	if r.Remarks != nil {
		merged.Remarks = *r.Remarks
	}

	merged.UpdatedAt = time.Now()
	return merged
}

// Fields returns the column map sent to the persistent store for the patch
func (r *UpdateNoteRequest) Fields() map[string]interface{} {
	fields := make(map[string]interface{})

	if r.ShipmentDate != nil {
		fields["shipment_date"] = *r.ShipmentDate
	}
	if r.VehiclePlate != nil {
		fields["vehicle_plate"] = *r.VehiclePlate
	}
	if r.DriverName != nil {
		fields["driver_name"] = *r.DriverName
	}
	if r.NoteNumber != nil {
		fields["note_number"] = *r.NoteNumber
	}
	if r.Destination != nil {
		fields["destination"] = *r.Destination
	}
	if r.ClearPO {
		fields["po_number"] = nil
	} else if r.PONumber != nil {
		fields["po_number"] = *r.PONumber
	}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if r.NetWeight != nil {
		fields["net_weight"] = *r.NetWeight
	}
	if r.Sealed != nil {
		fields["sealed"] = *r.Sealed
	}
	if r.SealNumbers != nil {
		fields["seal_numbers"] = model.SealNumbers(r.SealNumbers)
	}
	if r.Company != nil {
		fields["company"] = *r.Company
	}
	if r.Remarks != nil {
		fields["remarks"] = *r.Remarks
	}

	return fields
}

// Validate checks enum-valued fields
func (r *UpdateNoteRequest) Validate() error {
	if r.Status != nil {
		if _, err := model.NoteStatusFromString(*r.Status); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if r.Company != nil && !model.IsValidCompany(model.Company(*r.Company)) {
		return errInvalidCompany(*r.Company)
	}
	if r.PONumber != nil && r.ClearPO {
		return errConflictingPOFields
	}
	return nil
}

// CreatePORequest defines the request to create a purchase order
type CreatePORequest struct {
	PONumber     string  `json:"po_number" validate:"required"`
	BuyerName    string  `json:"buyer_name" validate:"required"`
	BuyerContact string  `json:"buyer_contact"`
	TotalTonnage float64 `json:"total_tonnage" validate:"required,gt=0"`
}

// RegisterUserRequest defines the request to create a user
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// LoginRequest defines the login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
