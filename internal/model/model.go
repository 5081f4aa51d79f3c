package model

import "time"

// Flight movements

type Movement struct {
	ID           int64
	ScheduledAt  time.Time
	Kind         string // ARR | DEP
	Registration string
	MTOWKg       *int
	TrafficType  string // NAT | INT
	RotationID   *string
	AirlineCode  string
	AirlineName  string
	AircraftType string
	PaxFull      int
	PaxHalf      int
	PaxTransit   int
	MailKg       float64
	FreightKg    float64
	IsInvoiced   bool
}

const (
	MovementKindArrival   = "ARR"
	MovementKindDeparture = "DEP"
)

const (
	TrafficDomestic      = "NAT"
	TrafficInternational = "INT"
)

// Billing scope

type BillingScope struct {
	Kind       string // SINGLE | ROTATION
	Movements  []Movement
	RotationID string
	// Degraded marks a rotation link that could not be honored because
	// fetching the sibling movements failed.
	Degraded bool
}

const (
	ScopeSingle   = "SINGLE"
	ScopeRotation = "ROTATION"
)

// Normalized calculator input. Pure data, no identity.

type BillingCalculationInput struct {
	MTOWKg            int
	TrafficType       string
	ArrivalAt         *time.Time
	DepartureAt       *time.Time
	PaxFull           int
	PaxHalf           int
	PaxTransit        int
	FreightKg         float64
	FreightRate       float64
	FuelLiters        float64
	FuelRate          float64
	OvertimeHours     float64
	OvertimeRate      float64
	LightingArrival   bool
	LightingDeparture bool
}

// Invoice line items and groups

type InvoiceItem struct {
	Code      string
	Label     string
	Quantity  float64
	UnitPrice float64
	Total     float64
	Group     string // AERO | ESC | SURETE | OTHER
	SortOrder int
}

const (
	GroupAero   = "AERO"
	GroupEsc    = "ESC"
	GroupSurete = "SURETE"
	GroupOther  = "OTHER"
)

// In-memory invoice. Built fresh per request, never persisted as-is.

type InvoiceModel struct {
	Scope        BillingScope
	MTOWKg       int
	Registration string
	AirlineCode  string
	AirlineName  string
	AircraftType string
	TrafficType  string
	DocType      string // PROFORMA | INVOICE
	Items        []InvoiceItem
	GroupTotals  map[string]float64
	GrandTotal   float64
}

const (
	DocTypeProforma = "PROFORMA"
	DocTypeInvoice  = "INVOICE"
)

// Persisted invoice

type Invoice struct {
	ID            string
	Number        string
	ClientName    string
	ClientAddress string
	IssuedAt      time.Time
	Total         float64
	Status        string
	DocType       string
	RotationID    *string
	MovementID    *int64
}

const (
	InvoiceStatusDraft    = "DRAFT"
	InvoiceStatusIssued   = "ISSUED"
	InvoiceStatusPaid     = "PAID"
	InvoiceStatusCanceled = "CANCELED"
)

type InvoiceLine struct {
	ID        string
	InvoiceID string
	Code      string
	Label     string
	Quantity  float64
	UnitPrice float64
	Total     float64
	Group     string
	SortOrder int
}

// Aircraft registry answer

type AircraftInfo struct {
	MTOWKg       *int
	AirlineCode  string
	AirlineName  string
	AircraftType string
}
