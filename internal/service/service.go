package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iurnickita/airbilling/internal/billing"
	"github.com/iurnickita/airbilling/internal/model"
	"github.com/iurnickita/airbilling/internal/scope"
	"github.com/iurnickita/airbilling/internal/service/config"
	"github.com/iurnickita/airbilling/internal/service/registryclient"
	"github.com/iurnickita/airbilling/internal/store"
)

type Service interface {
	PreviewInvoice(ctx context.Context, movementID int64, request BillingRequest) (model.InvoiceModel, error)
	SaveInvoice(ctx context.Context, movementID int64, request BillingRequest) (billing.SavedInvoice, error)
	GetUninvoicedMovements(ctx context.Context) ([]model.Movement, error)
}

var (
	ErrMovementNotFound = errors.New("movement not found")
	ErrAlreadyInvoiced  = errors.New("already invoiced")
	ErrInsufficientData = errors.New("insufficient data")
)

// BillingRequest carries the operator-supplied billing parameters for one
// preview or save action.
type BillingRequest struct {
	DocType           string
	MTOWOverrideKg    int
	FuelLiters        float64
	FuelRate          float64
	FreightRate       float64
	OvertimeHours     float64
	OvertimeRate      float64
	LightingArrival   bool
	LightingDeparture bool
	ClientName        string
	ClientAddress     string
}

type service struct {
	cfg      config.Config
	store    store.Store
	resolver scope.Resolver
	engine   billing.Engine
}

func NewService(cfg config.Config, store store.Store, zaplog *zap.Logger) Service {
	resolver := scope.NewResolver(store, zaplog)
	registry := registryclient.NewRegistryClient(cfg.RegistryAddr)
	engine := billing.NewEngine(store, registry, zaplog)

	service := service{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		engine:   engine}

	return &service
}

func (service *service) PreviewInvoice(ctx context.Context, movementID int64, request BillingRequest) (model.InvoiceModel, error) {
	if movementID == 0 {
		return model.InvoiceModel{}, ErrInsufficientData
	}

	movement, err := service.store.MovementGetByID(ctx, movementID)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			return model.InvoiceModel{}, ErrMovementNotFound
		default:
			return model.InvoiceModel{}, err
		}
	}

	billingScope := service.resolver.ResolveBillingScope(ctx, movement)

	return service.engine.BuildInvoiceModelFromScope(ctx, billingScope, buildParams(request))
}

func (service *service) SaveInvoice(ctx context.Context, movementID int64, request BillingRequest) (billing.SavedInvoice, error) {
	if movementID == 0 {
		return billing.SavedInvoice{}, ErrInsufficientData
	}

	movement, err := service.store.MovementGetByID(ctx, movementID)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			return billing.SavedInvoice{}, ErrMovementNotFound
		default:
			return billing.SavedInvoice{}, err
		}
	}
	// a movement locked by a final invoice is read-only for billing
	if movement.IsInvoiced && request.DocType == model.DocTypeInvoice {
		return billing.SavedInvoice{}, ErrAlreadyInvoiced
	}

	billingScope := service.resolver.ResolveBillingScope(ctx, movement)

	invoice, err := service.engine.BuildInvoiceModelFromScope(ctx, billingScope, buildParams(request))
	if err != nil {
		return billing.SavedInvoice{}, err
	}

	saved, err := service.engine.SaveInvoice(ctx, invoice, billing.SaveParams{
		ClientName:    request.ClientName,
		ClientAddress: request.ClientAddress,
	})
	if err != nil {
		switch err {
		case store.ErrAlreadyExists:
			return billing.SavedInvoice{}, ErrAlreadyInvoiced
		default:
			return billing.SavedInvoice{}, err
		}
	}

	return saved, nil
}

func (service *service) GetUninvoicedMovements(ctx context.Context) ([]model.Movement, error) {
	return service.store.MovementsGetUninvoiced(ctx)
}

func buildParams(request BillingRequest) billing.BuildParams {
	return billing.BuildParams{
		DocType:           request.DocType,
		MTOWOverrideKg:    request.MTOWOverrideKg,
		FuelLiters:        request.FuelLiters,
		FuelRate:          request.FuelRate,
		FreightRate:       request.FreightRate,
		OvertimeHours:     request.OvertimeHours,
		OvertimeRate:      request.OvertimeRate,
		LightingArrival:   request.LightingArrival,
		LightingDeparture: request.LightingDeparture,
	}
}
