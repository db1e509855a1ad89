package model

// InvoiceResponse represents the response for a single invoice
type InvoiceResponse struct {
	ID                 string                     `json:"id"`
	Installation       string                     `json:"installation"`
	Client             string                     `json:"client"`
	DueDate            string                     `json:"dueDate"`
	TotalAmount        string                     `json:"totalAmount"`
	PublicContribution string                     `json:"publicContribution"`
	NotaFiscal         string                     `json:"notaFiscal"`
	ReferencyMonth     string                     `json:"referencyMonth"`
	Band               string                     `json:"band"`
	UserID             string                     `json:"userId"`
	CompanyID          string                     `json:"companyId"`
	Name               string                     `json:"name"`
	Distributor        string                     `json:"distributor"`
	EnergyData         []EnergyDataResponse       `json:"energyData"`
	HistoryEnergy      []ConsumptionEntryResponse `json:"historyEnergy"`
	CreatedAt          string                     `json:"createdAt"`
	UpdatedAt          string                     `json:"updatedAt"`
}

// EnergyDataResponse represents a single energy line item
type EnergyDataResponse struct {
	ID        string `json:"id"`
	Type      string `json:"energyDataType"`
	Quantity  string `json:"quantity"`
	Value     string `json:"value"`
	UnitPrice string `json:"unitPrice"`
}

// ConsumptionEntryResponse represents one month of the consumption history
type ConsumptionEntryResponse struct {
	Month       string `json:"month"`
	Year        string `json:"year"`
	Consumption string `json:"consumption"`
}

// InvoicesListResponse represents paginated list of invoices
type InvoicesListResponse struct {
	Data       []InvoiceResponse  `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}
