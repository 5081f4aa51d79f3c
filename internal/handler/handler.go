package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iurnickita/airbilling/internal/auth"
	"github.com/iurnickita/airbilling/internal/billing"
	"github.com/iurnickita/airbilling/internal/gzip"
	"github.com/iurnickita/airbilling/internal/handler/config"
	"github.com/iurnickita/airbilling/internal/logger"
	"github.com/iurnickita/airbilling/internal/scope"
	"github.com/iurnickita/airbilling/internal/service"
)

func Serve(cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, cfg.ServerAddr, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	return srv.ListenAndServe()
}

type handler struct {
	auth     auth.Auth
	service  service.Service
	baseaddr string
	zaplog   *zap.Logger
	validate *validator.Validate
}

func newHandler(auth auth.Auth, service service.Service, baseaddr string, zaplog *zap.Logger) *handler {
	return &handler{
		auth:     auth,
		service:  service,
		baseaddr: baseaddr,
		zaplog:   zaplog,
		validate: validator.New(),
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/register", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Register, h.zaplog)))
	mux.HandleFunc("POST /api/user/login", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Login, h.zaplog)))
	mux.HandleFunc("POST /api/billing/preview", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.PostPreview), h.zaplog)))
	mux.HandleFunc("POST /api/billing/invoice", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.PostInvoice), h.zaplog)))
	mux.HandleFunc("GET /api/billing/movements/uninvoiced", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.GetUninvoicedMovements), h.zaplog)))

	return mux
}

type BillingJSONRequest struct {
	MovementID        int64   `json:"movement_id" validate:"required,gt=0"`
	DocType           string  `json:"doc_type" validate:"omitempty,oneof=PROFORMA INVOICE"`
	MTOWOverrideKg    int     `json:"mtow_override_kg" validate:"omitempty,gt=0"`
	FuelLiters        float64 `json:"fuel_liters" validate:"gte=0"`
	FuelRate          float64 `json:"fuel_rate" validate:"gte=0"`
	FreightRate       float64 `json:"freight_rate" validate:"gte=0"`
	OvertimeHours     float64 `json:"overtime_hours" validate:"gte=0"`
	OvertimeRate      float64 `json:"overtime_rate" validate:"gte=0"`
	LightingArrival   bool    `json:"lighting_arrival"`
	LightingDeparture bool    `json:"lighting_departure"`
	ClientName        string  `json:"client_name"`
	ClientAddress     string  `json:"client_address"`
}

func (h *handler) readBillingRequest(w http.ResponseWriter, r *http.Request) (BillingJSONRequest, bool) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return BillingJSONRequest{}, false
	}

	var requestJSON BillingJSONRequest
	err = json.Unmarshal(buf.Bytes(), &requestJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return BillingJSONRequest{}, false
	}
	err = h.validate.Struct(requestJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return BillingJSONRequest{}, false
	}

	return requestJSON, true
}

func billingRequest(requestJSON BillingJSONRequest) service.BillingRequest {
	return service.BillingRequest{
		DocType:           requestJSON.DocType,
		MTOWOverrideKg:    requestJSON.MTOWOverrideKg,
		FuelLiters:        requestJSON.FuelLiters,
		FuelRate:          requestJSON.FuelRate,
		FreightRate:       requestJSON.FreightRate,
		OvertimeHours:     requestJSON.OvertimeHours,
		OvertimeRate:      requestJSON.OvertimeRate,
		LightingArrival:   requestJSON.LightingArrival,
		LightingDeparture: requestJSON.LightingDeparture,
		ClientName:        requestJSON.ClientName,
		ClientAddress:     requestJSON.ClientAddress,
	}
}

type InvoiceItemJSON struct {
	Code      string  `json:"code"`
	Label     string  `json:"label"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
	Group     string  `json:"group"`
	SortOrder int     `json:"sort_order"`
}

type PreviewJSONResponse struct {
	Scope       string             `json:"scope"`
	Movements   []string           `json:"movements"`
	Degraded    bool               `json:"degraded,omitempty"`
	MTOWKg      int                `json:"mtow_kg"`
	TrafficType string             `json:"traffic_type"`
	DocType     string             `json:"doc_type"`
	Items       []InvoiceItemJSON  `json:"items"`
	GroupTotals map[string]float64 `json:"group_totals"`
	GrandTotal  float64            `json:"grand_total"`
}

func (h *handler) PostPreview(w http.ResponseWriter, r *http.Request) {
	requestJSON, ok := h.readBillingRequest(w, r)
	if !ok {
		return
	}

	invoice, err := h.service.PreviewInvoice(r.Context(), requestJSON.MovementID, billingRequest(requestJSON))
	if err != nil {
		h.billingError(w, err)
		return
	}

	itemsJSON := make([]InvoiceItemJSON, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		itemsJSON = append(itemsJSON, InvoiceItemJSON{
			Code:      item.Code,
			Label:     item.Label,
			Quantity:  item.Quantity,
			UnitPrice: amountOutput(item.UnitPrice),
			Total:     amountOutput(item.Total),
			Group:     item.Group,
			SortOrder: item.SortOrder,
		})
	}
	groupTotalsJSON := make(map[string]float64, len(invoice.GroupTotals))
	for group, total := range invoice.GroupTotals {
		groupTotalsJSON[group] = amountOutput(total)
	}

	responseJSON, err := json.Marshal(PreviewJSONResponse{
		Scope:       scope.ScopeLabel(invoice.Scope),
		Movements:   scope.MovementsSummary(invoice.Scope),
		Degraded:    invoice.Scope.Degraded,
		MTOWKg:      invoice.MTOWKg,
		TrafficType: invoice.TrafficType,
		DocType:     invoice.DocType,
		Items:       itemsJSON,
		GroupTotals: groupTotalsJSON,
		GrandTotal:  amountOutput(invoice.GrandTotal),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}

type SaveInvoiceJSONResponse struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
}

func (h *handler) PostInvoice(w http.ResponseWriter, r *http.Request) {
	requestJSON, ok := h.readBillingRequest(w, r)
	if !ok {
		return
	}

	saved, err := h.service.SaveInvoice(r.Context(), requestJSON.MovementID, billingRequest(requestJSON))
	if err != nil {
		h.billingError(w, err)
		return
	}

	responseJSON, err := json.Marshal(SaveInvoiceJSONResponse{
		InvoiceID:     saved.InvoiceID,
		InvoiceNumber: saved.InvoiceNumber,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(responseJSON)
}

type MovementJSONResponse struct {
	ID           int64  `json:"id"`
	ScheduledAt  string `json:"scheduled_at"`
	Kind         string `json:"kind"`
	Registration string `json:"registration"`
	TrafficType  string `json:"traffic_type"`
	RotationID   string `json:"rotation_id,omitempty"`
	AirlineCode  string `json:"airline_code"`
	AircraftType string `json:"aircraft_type"`
}

func (h *handler) GetUninvoicedMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.GetUninvoicedMovements(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(movements) == 0 {
		http.Error(w, "", http.StatusNoContent)
		return
	}

	var movementsJSON []MovementJSONResponse
	for _, movement := range movements {
		movementJSON := MovementJSONResponse{
			ID:           movement.ID,
			ScheduledAt:  movement.ScheduledAt.Format("2006-01-02 15:04"),
			Kind:         movement.Kind,
			Registration: movement.Registration,
			TrafficType:  movement.TrafficType,
			AirlineCode:  movement.AirlineCode,
			AircraftType: movement.AircraftType,
		}
		if movement.RotationID != nil {
			movementJSON.RotationID = *movement.RotationID
		}
		movementsJSON = append(movementsJSON, movementJSON)
	}
	responseJSON, err := json.Marshal(movementsJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}

func (h *handler) billingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientData):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrMovementNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyInvoiced):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, billing.ErrEmptyScope), errors.Is(err, billing.ErrInvalidDocType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, billing.ErrMTOWUnresolved):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// amounts stay unrounded through summation and are rounded to whole
// currency units only here, at the display boundary
func amountOutput(amount float64) float64 {
	return math.Round(amount)
}
