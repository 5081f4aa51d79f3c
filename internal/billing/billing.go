// Package billing drives the pipeline from a resolved billing scope to a
// persisted invoice: MTOW resolution, tariff calculation, model assembly
// and the save-with-compensation sequence.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/theplant/luhn"
	"go.uber.org/zap"

	"github.com/iurnickita/airbilling/internal/model"
	"github.com/iurnickita/airbilling/internal/tariff"
)

// BillingStore is the slice of the data store the engine needs.
type BillingStore interface {
	AircraftGetByRegistration(ctx context.Context, registration string) (model.AircraftInfo, error)
	InvoiceInsert(ctx context.Context, invoice model.Invoice) error
	InvoiceLinesInsert(ctx context.Context, lines []model.InvoiceLine) error
	InvoiceDelete(ctx context.Context, id string) error
	MovementsMarkInvoiced(ctx context.Context, ids []int64) error
	InvoiceNextSeq(ctx context.Context) (int64, error)
}

// Registry is the external aircraft registry, MTOW source number two.
type Registry interface {
	LookupAircraftByRegistration(registration string) ([]model.AircraftInfo, error)
}

var (
	ErrEmptyScope     = errors.New("billing scope contains no movements")
	ErrMTOWUnresolved = errors.New("mtow could not be determined")
	ErrInvalidDocType = errors.New("invalid document type")
)

// BuildParams tune a single invoice build. Zero values mean "not supplied".
type BuildParams struct {
	DocType           string
	MTOWOverrideKg    int
	FuelLiters        float64
	FuelRate          float64
	FreightRate       float64
	OvertimeHours     float64
	OvertimeRate      float64
	LightingArrival   bool
	LightingDeparture bool
}

type SaveParams struct {
	ClientName    string
	ClientAddress string
}

type SavedInvoice struct {
	InvoiceID     string
	InvoiceNumber string
}

type Engine interface {
	GetMtowForScope(ctx context.Context, scope model.BillingScope) (int, error)
	BuildInvoiceModelFromScope(ctx context.Context, scope model.BillingScope, params BuildParams) (model.InvoiceModel, error)
	SaveInvoice(ctx context.Context, invoice model.InvoiceModel, params SaveParams) (SavedInvoice, error)
}

type engine struct {
	store    BillingStore
	registry Registry
	zaplog   *zap.Logger
}

func NewEngine(store BillingStore, registry Registry, zaplog *zap.Logger) Engine {
	return &engine{
		store:    store,
		registry: registry,
		zaplog:   zaplog,
	}
}

// mtowResolver returns a positive MTOW in kilograms, or nothing.
type mtowResolver func(ctx context.Context, scope model.BillingScope) *int

// GetMtowForScope tries the resolver chain in order and takes the first
// positive answer: movement records, then the external registry, then the
// local aircraft reference table. Every fee tier derives from the MTOW, so
// a scope without a resolvable one is not billable.
func (e *engine) GetMtowForScope(ctx context.Context, scope model.BillingScope) (int, error) {
	if len(scope.Movements) == 0 {
		return 0, ErrEmptyScope
	}

	resolvers := []mtowResolver{
		e.mtowFromMovements,
		e.mtowFromRegistry,
		e.mtowFromAircraftTable,
	}
	for _, resolve := range resolvers {
		if mtowKg := resolve(ctx, scope); mtowKg != nil && *mtowKg > 0 {
			return *mtowKg, nil
		}
	}

	return 0, fmt.Errorf("%w: registration %q, scope %s, movement %d",
		ErrMTOWUnresolved,
		scope.Movements[0].Registration,
		scope.Kind,
		scope.Movements[0].ID)
}

func (e *engine) mtowFromMovements(_ context.Context, scope model.BillingScope) *int {
	var maxMTOWKg *int
	for _, movement := range scope.Movements {
		if movement.MTOWKg == nil || *movement.MTOWKg <= 0 {
			continue
		}
		if maxMTOWKg == nil || *movement.MTOWKg > *maxMTOWKg {
			maxMTOWKg = movement.MTOWKg
		}
	}
	return maxMTOWKg
}

func (e *engine) mtowFromRegistry(_ context.Context, scope model.BillingScope) *int {
	registration := scope.Movements[0].Registration
	if registration == "" {
		return nil
	}
	infos, err := e.registry.LookupAircraftByRegistration(registration)
	if err != nil {
		e.zaplog.Warn("aircraft registry lookup failed",
			zap.String("registration", registration),
			zap.Error(err),
		)
		return nil
	}
	for _, info := range infos {
		if info.MTOWKg != nil && *info.MTOWKg > 0 {
			return info.MTOWKg
		}
	}
	return nil
}

func (e *engine) mtowFromAircraftTable(ctx context.Context, scope model.BillingScope) *int {
	registration := scope.Movements[0].Registration
	if registration == "" {
		return nil
	}
	info, err := e.store.AircraftGetByRegistration(ctx, registration)
	if err != nil {
		return nil
	}
	return info.MTOWKg
}

// BuildInvoiceModelFromScope resolves the MTOW, derives the calculator
// input from the movements in scope and packages the computed items with
// the invoice header. It persists nothing.
func (e *engine) BuildInvoiceModelFromScope(ctx context.Context, scope model.BillingScope, params BuildParams) (model.InvoiceModel, error) {
	if len(scope.Movements) == 0 {
		return model.InvoiceModel{}, ErrEmptyScope
	}
	docType := params.DocType
	if docType == "" {
		docType = model.DocTypeProforma
	}
	if docType != model.DocTypeProforma && docType != model.DocTypeInvoice {
		return model.InvoiceModel{}, fmt.Errorf("%w: %s", ErrInvalidDocType, docType)
	}

	mtowKg := params.MTOWOverrideKg
	if mtowKg <= 0 {
		var err error
		mtowKg, err = e.GetMtowForScope(ctx, scope)
		if err != nil {
			return model.InvoiceModel{}, err
		}
	}

	first := scope.Movements[0]
	trafficType := first.TrafficType
	if trafficType == "" {
		trafficType = model.TrafficDomestic
	}

	input := model.BillingCalculationInput{
		MTOWKg:        mtowKg,
		TrafficType:   trafficType,
		FuelLiters:    params.FuelLiters,
		FuelRate:      params.FuelRate,
		FreightRate:   params.FreightRate,
		OvertimeHours: params.OvertimeHours,
		OvertimeRate:  params.OvertimeRate,
	}
	for _, movement := range scope.Movements {
		input.PaxFull += movement.PaxFull
		input.PaxHalf += movement.PaxHalf
		input.PaxTransit += movement.PaxTransit
		input.FreightKg += movement.FreightKg

		scheduledAt := movement.ScheduledAt
		switch movement.Kind {
		case model.MovementKindArrival:
			input.ArrivalAt = &scheduledAt
			input.LightingArrival = params.LightingArrival
		case model.MovementKindDeparture:
			input.DepartureAt = &scheduledAt
			input.LightingDeparture = params.LightingDeparture
		}
	}

	items := tariff.CalculateAllItems(input)

	return model.InvoiceModel{
		Scope:        scope,
		MTOWKg:       mtowKg,
		Registration: first.Registration,
		AirlineCode:  first.AirlineCode,
		AirlineName:  first.AirlineName,
		AircraftType: first.AircraftType,
		TrafficType:  trafficType,
		DocType:      docType,
		Items:        items,
		GroupTotals:  tariff.GroupTotals(items),
		GrandTotal:   tariff.Total(items),
	}, nil
}

// SaveInvoice persists the invoice header, then its lines. The two inserts
// are not atomic in the store, so a line failure compensates by deleting
// the header before surfacing the error: no invoice without lines. On a
// final INVOICE the scope movements are flagged invoiced afterwards; the
// saved invoice stays valid even if that flag write fails.
func (e *engine) SaveInvoice(ctx context.Context, invoice model.InvoiceModel, params SaveParams) (SavedInvoice, error) {
	if len(invoice.Scope.Movements) == 0 {
		return SavedInvoice{}, ErrEmptyScope
	}

	number, err := e.nextInvoiceNumber(ctx)
	if err != nil {
		return SavedInvoice{}, err
	}

	record := model.Invoice{
		ID:            uuid.NewString(),
		Number:        number,
		ClientName:    params.ClientName,
		ClientAddress: params.ClientAddress,
		IssuedAt:      time.Now(),
		Total:         invoice.GrandTotal,
		Status:        model.InvoiceStatusDraft,
		DocType:       invoice.DocType,
	}
	if invoice.Scope.Kind == model.ScopeRotation {
		rotationID := invoice.Scope.RotationID
		record.RotationID = &rotationID
	} else {
		movementID := invoice.Scope.Movements[0].ID
		record.MovementID = &movementID
	}

	lines := make([]model.InvoiceLine, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		lines = append(lines, model.InvoiceLine{
			ID:        uuid.NewString(),
			InvoiceID: record.ID,
			Code:      item.Code,
			Label:     item.Label,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
			Group:     item.Group,
			SortOrder: item.SortOrder,
		})
	}
	if err := e.persistWithCompensation(ctx, record, lines); err != nil {
		return SavedInvoice{}, err
	}

	if invoice.DocType == model.DocTypeInvoice {
		ids := make([]int64, 0, len(invoice.Scope.Movements))
		for _, movement := range invoice.Scope.Movements {
			ids = append(ids, movement.ID)
		}
		if err := e.store.MovementsMarkInvoiced(ctx, ids); err != nil {
			// the invoice is the financial record of truth, the flag is
			// a convenience index
			e.zaplog.Error("failed to mark movements invoiced",
				zap.String("invoice", record.ID),
				zap.Int64s("movements", ids),
				zap.Error(err),
			)
		}
	}

	return SavedInvoice{
		InvoiceID:     record.ID,
		InvoiceNumber: record.Number,
	}, nil
}

// persistWithCompensation is the two-step save: header insert, then line
// insert. The store offers no transaction spanning both, so a line failure
// compensates by deleting the just-created header before the error is
// surfaced.
func (e *engine) persistWithCompensation(ctx context.Context, record model.Invoice, lines []model.InvoiceLine) error {
	if err := e.store.InvoiceInsert(ctx, record); err != nil {
		return err
	}
	if err := e.store.InvoiceLinesInsert(ctx, lines); err != nil {
		if delErr := e.store.InvoiceDelete(ctx, record.ID); delErr != nil {
			e.zaplog.Error("compensating invoice delete failed",
				zap.String("invoice", record.ID),
				zap.Error(delErr),
			)
		}
		return fmt.Errorf("invoice lines insert: %w", err)
	}
	return nil
}

// nextInvoiceNumber appends the Luhn check digit to the store sequence.
func (e *engine) nextInvoiceNumber(ctx context.Context) (string, error) {
	seq, err := e.store.InvoiceNextSeq(ctx)
	if err != nil {
		return "", err
	}
	for digit := int64(0); digit <= 9; digit++ {
		candidate := seq*10 + digit
		if luhn.Valid(int(candidate)) {
			return strconv.FormatInt(candidate, 10), nil
		}
	}
	return "", fmt.Errorf("no luhn check digit for sequence %d", seq)
}
