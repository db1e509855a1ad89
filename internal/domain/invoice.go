package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDistributor is the utility company of the supported bill layout.
const DefaultDistributor = "CEMIG"

// EnergyType identifies one of the three tariff categories itemized on a bill.
type EnergyType string

const (
	EnergyEletric     EnergyType = "energyEletric"
	EnergySCEE        EnergyType = "energySCEE"
	CompensatedEnergy EnergyType = "compensatedEnergy"
)

// EnergyData represents one itemized energy line on an invoice.
// Value may be negative for compensated (credited) energy.
type EnergyData struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	Type      EnergyType      `json:"energyDataType"`
	Quantity  decimal.Decimal `json:"quantity"`  // kWh, 4 decimal places
	Value     decimal.Decimal `json:"value"`     // BRL, 4 decimal places
	UnitPrice decimal.Decimal `json:"unitPrice"` // BRL/kWh, 8 decimal places
}

// ConsumptionEntry is one row of the consumption history table,
// kept as strings exactly as printed on the bill.
type ConsumptionEntry struct {
	Month       string `json:"month"`
	Year        string `json:"year"`
	Consumption string `json:"consumption"`
}

// ConsumptionHistory holds the trailing-year consumption table of one
// invoice, stored as a single jsonb blob. Entries are in document order:
// most recent month first.
type ConsumptionHistory struct {
	ID        string             `json:"id"`
	InvoiceID string             `json:"invoiceId"`
	Entries   []ConsumptionEntry `json:"consumptionHistory"`
}

// Invoice is the aggregate root for one parsed electricity bill.
type Invoice struct {
	ID                 string              `json:"id"`
	Installation       string              `json:"installation"`
	Client             string              `json:"client"`
	DueDate            string              `json:"dueDate"` // as printed, e.g. "12/02/2024"
	TotalAmount        decimal.Decimal     `json:"totalAmount"`
	PublicContribution decimal.Decimal     `json:"publicContribution"`
	NotaFiscal         string              `json:"notaFiscal"`
	ReferencyMonth     string              `json:"referencyMonth"` // "MON/YY" of the newest history entry
	Band               string              `json:"band"`
	UserID             string              `json:"userId"`
	CompanyID          string              `json:"companyId"`
	Path               string              `json:"path"` // storage key of the uploaded document
	Name               string              `json:"name"`
	Distributor        string              `json:"distributor"`
	EnergyData         []EnergyData        `json:"energyData"`
	History            *ConsumptionHistory `json:"historyEnergy"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	DeletedAt          *time.Time          `json:"deletedAt,omitempty"`
}

// InvoiceFilter represents filters for querying invoices
type InvoiceFilter struct {
	InitialDate *time.Time
	FinalDate   *time.Time
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	CompanyIDs  []string
	UserIDs     []string
	Page        int
	Limit       int
}

// Pagination represents pagination metadata
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// PaginatedInvoices represents a paginated list of invoices
type PaginatedInvoices struct {
	Data       []Invoice  `json:"data"`
	Pagination Pagination `json:"pagination"`
}
