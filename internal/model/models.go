package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Base model fields shared by all models
type Base struct {
	UUID      string    `json:"uuid" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Company is one of the three legal entities delivery notes are issued under
type Company string

const (
	CompanySinarJaya     Company = "PT Sinar Jaya Logistik"
	CompanyBuanaCargo    Company = "PT Buana Cargo Nusantara"
	CompanyMitraAngkutan Company = "CV Mitra Angkutan Sejati"
)

// Companies returns the fixed set of owning companies
func Companies() []Company {
	return []Company{CompanySinarJaya, CompanyBuanaCargo, CompanyMitraAngkutan}
}

// IsValidCompany reports whether c is one of the fixed legal entities
func IsValidCompany(c Company) bool {
	for _, known := range Companies() {
		if c == known {
			return true
		}
	}
	return false
}

// NoteStatus defines the lifecycle status of a delivery note
type NoteStatus string

const (
	// NoteStatusAwaiting is the initial status of a newly created note
	NoteStatusAwaiting NoteStatus = "awaiting"
	// NoteStatusInTransit is set when the operator initiates the print action
	NoteStatusInTransit NoteStatus = "in-transit"
	// NoteStatusCompleted is set by explicit user edit once the shipment lands
	NoteStatusCompleted NoteStatus = "completed"
)

// NoteStatusFromString converts a string to a NoteStatus
func NoteStatusFromString(status string) (NoteStatus, error) {
	switch NoteStatus(status) {
	case NoteStatusAwaiting, NoteStatusInTransit, NoteStatusCompleted:
		return NoteStatus(status), nil
	default:
		return "", fmt.Errorf("unknown delivery note status %q", status)
	}
}

// POStatus defines the derived status of a purchase order
type POStatus string

const (
	// POStatusActive means no tonnage has shipped against the order yet
	POStatusActive POStatus = "Active"
	// POStatusPartial means some but not all tonnage has shipped
	POStatusPartial POStatus = "Partial"
	// POStatusCompleted means shipped tonnage has reached the contracted total
	POStatusCompleted POStatus = "Completed"
)

// DerivePOStatus computes the purchase order status from shipped vs total tonnage.
// Completed iff shipped >= total, Partial iff 0 < shipped < total, Active otherwise.
func DerivePOStatus(shipped, total float64) POStatus {
	switch {
	case shipped >= total:
		return POStatusCompleted
	case shipped > 0:
		return POStatusPartial
	default:
		return POStatusActive
	}
}

// RemainingTonnage computes remaining contracted tonnage, floored at zero
func RemainingTonnage(total, shipped float64) float64 {
	remaining := total - shipped
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SealNumbers is an ordered collection of seal number strings stored as jsonb
type SealNumbers []string

// Value implements driver.Valuer for jsonb storage
func (s SealNumbers) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for jsonb storage
func (s *SealNumbers) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SealNumbers", value)
	}
	return json.Unmarshal(data, s)
}

// DeliveryNote represents a single truck/driver/destination shipment record,
// optionally tied to a purchase order by its loose PO number
type DeliveryNote struct {
	Base
	ShipmentDate time.Time   `json:"shipment_date"`
	VehiclePlate string      `json:"vehicle_plate"`
	DriverName   string      `json:"driver_name"`
	NoteNumber   string      `json:"note_number" gorm:"uniqueIndex;not null"`
	Destination  string      `json:"destination"`
	PONumber     *string     `json:"po_number" gorm:"column:po_number;index"`
	Status       NoteStatus  `json:"status"`
	NetWeight    *float64    `json:"net_weight"`
	Sealed       bool        `json:"sealed"`
	SealNumbers  SealNumbers `json:"seal_numbers" gorm:"type:jsonb"`
	Company      Company     `json:"company"`
	Remarks      string      `json:"remarks" gorm:"type:text"`
}

// Clone returns a deep copy of the note. The optimistic store hands out and
// keeps only clones so a rollback restores the exact prior snapshot.
func (n *DeliveryNote) Clone() *DeliveryNote {
	if n == nil {
		return nil
	}
	out := *n
	if n.PONumber != nil {
		po := *n.PONumber
		out.PONumber = &po
	}
	if n.NetWeight != nil {
		w := *n.NetWeight
		out.NetWeight = &w
	}
	if n.SealNumbers != nil {
		out.SealNumbers = make(SealNumbers, len(n.SealNumbers))
		copy(out.SealNumbers, n.SealNumbers)
	}
	return &out
}

// PurchaseOrder represents a buyer contract for total tonnage delivered over
// time via one or more delivery notes. Shipped/remaining tonnage and status
// are best-effort summaries recomputed from the notes, not ledger values.
type PurchaseOrder struct {
	Base
	PONumber         string   `json:"po_number" gorm:"column:po_number;uniqueIndex;not null"`
	BuyerName        string   `json:"buyer_name"`
	BuyerContact     string   `json:"buyer_contact"`
	TotalTonnage     float64  `json:"total_tonnage"`
	ShippedTonnage   float64  `json:"shipped_tonnage"`
	RemainingTonnage float64  `json:"remaining_tonnage"`
	Status           POStatus `json:"status"`
}

// Role defines a user role
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleSupervisor    Role = "supervisor"
	RoleOperator      Role = "operator"
	RoleDriver        Role = "driver"
)

// Roles returns the fixed set of roles
func Roles() []Role {
	return []Role{RoleAdministrator, RoleSupervisor, RoleOperator, RoleDriver}
}

// RoleFromString converts a string to a Role
func RoleFromString(role string) (Role, error) {
	switch Role(role) {
	case RoleAdministrator, RoleSupervisor, RoleOperator, RoleDriver:
		return Role(role), nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

// MenuPolicyKind tags the variant of a user's menu access policy
type MenuPolicyKind string

const (
	// MenuPolicyRoleDefault means the user sees the role-based menu list
	MenuPolicyRoleDefault MenuPolicyKind = "role-default"
	// MenuPolicyCustomOverride means the listed menu ids fully replace the
	// role-based list, they are never merged with it
	MenuPolicyCustomOverride MenuPolicyKind = "custom-override"
)

// MenuPolicy is a tagged choice between the role-default menu list and a
// per-user custom override list
type MenuPolicy struct {
	Kind    MenuPolicyKind `json:"kind"`
	MenuIDs []string       `json:"menu_ids,omitempty"`
}

// RoleDefaultMenus returns the default policy
func RoleDefaultMenus() MenuPolicy {
	return MenuPolicy{Kind: MenuPolicyRoleDefault}
}

// CustomMenus returns an override policy for the given menu ids
func CustomMenus(ids ...string) MenuPolicy {
	return MenuPolicy{Kind: MenuPolicyCustomOverride, MenuIDs: ids}
}

// IsOverride reports whether the policy replaces the role defaults
func (p MenuPolicy) IsOverride() bool {
	return p.Kind == MenuPolicyCustomOverride && len(p.MenuIDs) > 0
}

// Value implements driver.Valuer for jsonb storage
func (p MenuPolicy) Value() (driver.Value, error) {
	if p.Kind == "" {
		p.Kind = MenuPolicyRoleDefault
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for jsonb storage
func (p *MenuPolicy) Scan(value interface{}) error {
	if value == nil {
		*p = RoleDefaultMenus()
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MenuPolicy", value)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return err
	}
	if p.Kind == "" {
		p.Kind = MenuPolicyRoleDefault
	}
	return nil
}

// User represents an application user
type User struct {
	Base
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         Role       `json:"role"`
	MenuPolicy   MenuPolicy `json:"menu_policy" gorm:"type:jsonb"`
}
