package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/permissions"
	"github.com/AchAffand/SuratJalan-sub001/internal/service"
)

var validate = validator.New()

// Handler defines the API handler
type Handler struct {
	noteService *service.DeliveryNoteService
	poService   *service.PurchaseOrderService
	userService *service.UserService
}

// NewHandler creates a new API handler
func NewHandler(
	noteService *service.DeliveryNoteService,
	poService *service.PurchaseOrderService,
	userService *service.UserService,
) *Handler {
	return &Handler{
		noteService: noteService,
		poService:   poService,
		userService: userService,
	}
}

// RegisterRoutes registers API routes
func (h *Handler) RegisterRoutes(r *mux.Router, m *Middleware, jwtSecret string) {
	// Public routes
	r.HandleFunc("/auth/bootstrap", h.Bootstrap).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/metrics", MetricsHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(m.Authenticate(jwtSecret))

	// Delivery note routes
	notes := authed.NewRoute().Subrouter()
	notes.Use(m.RequireCapability(permissions.CapManageDeliveryNotes))
	notes.HandleFunc("/notes", h.CreateNote).Methods(http.MethodPost)
	notes.HandleFunc("/notes/{id}", h.UpdateNote).Methods(http.MethodPatch)
	notes.HandleFunc("/notes/{id}", h.DeleteNote).Methods(http.MethodDelete)

	authed.HandleFunc("/notes", h.ListNotes).Methods(http.MethodGet)
	authed.HandleFunc("/notes/search", h.SearchNotes).Methods(http.MethodGet)
	authed.HandleFunc("/notes/{id}", h.GetNote).Methods(http.MethodGet)

	printing := authed.NewRoute().Subrouter()
	printing.Use(m.RequireCapability(permissions.CapPrintDocuments))
	printing.HandleFunc("/notes/{id}/print", h.PrintNote).Methods(http.MethodPost)

	// Purchase order routes
	authed.HandleFunc("/purchase-orders", h.ListPurchaseOrders).Methods(http.MethodGet)
	authed.HandleFunc("/purchase-orders/number/{po_number}", h.GetPurchaseOrderByNumber).Methods(http.MethodGet)
	authed.HandleFunc("/purchase-orders/{id}", h.GetPurchaseOrder).Methods(http.MethodGet)

	pos := authed.NewRoute().Subrouter()
	pos.Use(m.RequireCapability(permissions.CapManagePurchaseOrders))
	pos.HandleFunc("/purchase-orders", h.CreatePurchaseOrder).Methods(http.MethodPost)

	// User management routes
	users := authed.NewRoute().Subrouter()
	users.Use(m.RequireCapability(permissions.CapManageUsers))
	users.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	users.HandleFunc("/users", h.RegisterUser).Methods(http.MethodPost)
	users.HandleFunc("/users/{id}/menu-policy", h.SetMenuPolicy).Methods(http.MethodPut)

	authed.HandleFunc("/me/menus", h.MyMenus).Methods(http.MethodGet)
}

// Bootstrap creates the first administrator account
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Bootstrap(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, user)
}

// Login verifies credentials and returns a token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// ListNotes returns the working set of delivery notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, notes)
}

// GetNote returns one delivery note
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, note)
}

// SearchNotes queries the search index
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, NewValidationError("Query parameter q is required"))
		return
	}

	hits, err := h.noteService.Search(r.Context(), query)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, hits)
}

// CreateNote creates a delivery note
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req service.CreateNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.noteService.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, note)
}

// UpdateNote applies a partial edit. With debounce=true the write is
// coalesced with other rapid edits to the same note.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewValidationError("Invalid request body"))
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeValidation)
		return
	}

	id := mux.Vars(r)["id"]
	var note *model.DeliveryNote
	var err error
	if r.URL.Query().Get("debounce") == "true" {
		note, err = h.noteService.UpdateDebounced(r.Context(), id, &req)
	} else {
		note, err = h.noteService.Update(r.Context(), id, &req)
	}

	if err != nil {
		// The note update stands even when reconciliation fails, report
		// the warning alongside the updated record
		if note != nil && isReconcileWarning(err) {
			writeJSONResponse(w, http.StatusOK, map[string]interface{}{
				"note":    note,
				"warning": err.Error(),
			})
			return
		}
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, note)
}

// DeleteNote removes a delivery note
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.noteService.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// PrintNote marks the note in-transit and returns it for rendering
func (h *Handler) PrintNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteService.Print(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if note != nil && isReconcileWarning(err) {
			writeJSONResponse(w, http.StatusOK, map[string]interface{}{
				"note":    note,
				"warning": err.Error(),
			})
			return
		}
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, note)
}

// ListPurchaseOrders returns all purchase orders
func (h *Handler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.poService.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orders)
}

// GetPurchaseOrder returns one purchase order by id
func (h *Handler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := h.poService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, po)
}

// GetPurchaseOrderByNumber returns one purchase order by PO number
func (h *Handler) GetPurchaseOrderByNumber(w http.ResponseWriter, r *http.Request) {
	po, err := h.poService.GetByNumber(r.Context(), mux.Vars(r)["po_number"])
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, po)
}

// CreatePurchaseOrder creates a purchase order
func (h *Handler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePORequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	po, err := h.poService.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, po)
}

// ListUsers returns all user accounts
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, users)
}

// RegisterUser creates a user account
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, user)
}

// SetMenuPolicy replaces a user's menu policy
func (h *Handler) SetMenuPolicy(w http.ResponseWriter, r *http.Request) {
	var policy model.MenuPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		WriteError(w, NewValidationError("Invalid request body"))
		return
	}

	user, err := h.userService.SetMenuPolicy(r.Context(), mux.Vars(r)["id"], policy)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// MyMenus returns the menu entries visible to the caller
func (h *Handler) MyMenus(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrUnauthorized)
		return
	}

	menus, err := h.userService.Menus(r.Context(), claims.UserID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, menus)
}

// decodeAndValidate parses the request body and runs struct validation.
// Writes the error response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, NewValidationError("Invalid request body"))
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeValidation)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		WriteError(w, NewValidationError(err.Error()))
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeValidation)
		return false
	}
	return true
}

func isReconcileWarning(err error) bool {
	return err != nil && errors.Is(err, service.ErrReconcileFailed)
}

// writeJSONResponse writes a JSON response
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}
