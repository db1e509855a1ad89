package repository

import (
	"context"
	"errors"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// ErrInvoiceNotFound indicates the invoice does not exist or is soft-deleted.
var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceRepository defines the interface for invoice data storage operations
type InvoiceRepository interface {
	// CreateInvoice persists the invoice aggregate (invoice row, energy line
	// items and consumption history) in a single transaction. Either all
	// rows commit or none do.
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)

	// GetInvoiceByID retrieves an invoice with its relations
	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// ListInvoices retrieves invoices with filters and pagination
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)

	// SoftDeleteInvoice marks an invoice and its dependent rows as deleted
	SoftDeleteInvoice(ctx context.Context, invoiceID string) error
}
