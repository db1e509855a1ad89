package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
	"github.com/vcarvalho/energy-invoice-service/internal/extraction"
	"github.com/vcarvalho/energy-invoice-service/internal/repository"
	"github.com/vcarvalho/energy-invoice-service/internal/storage"
)

// InvoiceProcessingError represents an error that occurred while processing
// an uploaded bill document.
type InvoiceProcessingError struct {
	// Op is the pipeline stage that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *InvoiceProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *InvoiceProcessingError) Unwrap() error {
	return e.Err
}

// TextAcquirer turns raw document bytes into plain text.
type TextAcquirer interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// DocumentStorage stores and retrieves the original uploaded documents.
type DocumentStorage interface {
	Upload(data []byte, key string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// InvoiceService defines the interface for invoice-related business logic.
// Every operation takes the authenticated user explicitly; there is no
// request-scoped ambient state.
type InvoiceService interface {
	// UploadInvoice runs the full pipeline for one uploaded bill document:
	// text acquisition, field extraction, assembly and the transactional
	// write. A failed extraction never creates a partial invoice.
	UploadInvoice(ctx context.Context, fileData []byte, fileName string, user *domain.User, companyID string) (*domain.Invoice, error)

	GetInvoiceByID(ctx context.Context, invoiceID string, user *domain.User) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter, user *domain.User) (*domain.PaginatedInvoices, error)
	DeleteInvoice(ctx context.Context, invoiceID string, user *domain.User) error

	// DownloadInvoice streams the stored original document of an invoice.
	DownloadInvoice(ctx context.Context, invoiceID string, user *domain.User) (io.ReadCloser, *domain.Invoice, error)
}

// InvoiceServiceImpl implements the InvoiceService interface
type InvoiceServiceImpl struct {
	acquirer    TextAcquirer
	invoiceRepo repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	storage     DocumentStorage
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(acquirer TextAcquirer, invoiceRepo repository.InvoiceRepository, companyRepo repository.CompanyRepository, docStorage DocumentStorage) InvoiceService {
	return &InvoiceServiceImpl{
		acquirer:    acquirer,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		storage:     docStorage,
	}
}

// UploadInvoice processes one uploaded bill document end to end.
func (s *InvoiceServiceImpl) UploadInvoice(ctx context.Context, fileData []byte, fileName string, user *domain.User, companyID string) (*domain.Invoice, error) {
	company, err := s.authorizeCompany(ctx, user, companyID)
	if err != nil {
		return nil, err
	}

	text, err := s.acquirer.ExtractText(ctx, fileData)
	if err != nil {
		return nil, &InvoiceProcessingError{Op: "extract_text", Err: err}
	}

	if category := extraction.Classify(text); category != "fatura" {
		log.Printf("document classified as %q, attempting extraction anyway", category)
	}

	fields, err := extraction.ParseFields(text)
	if err != nil {
		return nil, &InvoiceProcessingError{Op: "parse_fields", Err: err}
	}

	path := fmt.Sprintf("invoices/%s/%s.pdf", company.ID, uuid.NewString())
	if err := s.storage.Upload(fileData, path); err != nil {
		return nil, &InvoiceProcessingError{Op: "store_document", Err: err}
	}

	invoice, err := assembleInvoice(fields, company, user, path, fileName)
	if err != nil {
		return nil, &InvoiceProcessingError{Op: "assemble_invoice", Err: err}
	}

	invoice, err = s.invoiceRepo.CreateInvoice(ctx, invoice)
	if err != nil {
		return nil, &InvoiceProcessingError{Op: "persist_invoice", Err: err}
	}

	return invoice, nil
}

// assembleInvoice maps extracted fields onto the domain aggregate. Line
// items and history are cross-linked to the not-yet-persisted invoice;
// identifiers are assigned at persistence time. Mandatory fields are
// re-checked so an incomplete RawFields never reaches the repository.
func assembleInvoice(fields *extraction.RawFields, company *domain.Company, user *domain.User, path, name string) (*domain.Invoice, error) {
	required := []struct {
		field string
		value string
	}{
		{"installation", fields.Installation},
		{"client", fields.Client},
		{"dueDate", fields.DueDate},
		{"notaFiscal", fields.NotaFiscal},
		{"band", fields.Band},
		{"referencyMonth", fields.ReferencyMonth},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, &extraction.FieldNotFoundError{Field: f.field}
		}
	}
	if len(fields.History) == 0 {
		return nil, &extraction.FieldNotFoundError{Field: "referencyMonth"}
	}

	invoice := &domain.Invoice{
		Installation:       fields.Installation,
		Client:             fields.Client,
		DueDate:            fields.DueDate,
		TotalAmount:        fields.TotalAmount,
		PublicContribution: fields.PublicContribution,
		NotaFiscal:         fields.NotaFiscal,
		ReferencyMonth:     fields.ReferencyMonth,
		Band:               fields.Band,
		UserID:             user.ID,
		CompanyID:          company.ID,
		Path:               path,
		Name:               name,
		Distributor:        domain.DefaultDistributor,
		EnergyData: []domain.EnergyData{
			{Type: domain.EnergyEletric, Quantity: fields.EnergyEletric.Quantity, Value: fields.EnergyEletric.Value, UnitPrice: fields.EnergyEletric.UnitPrice},
			{Type: domain.EnergySCEE, Quantity: fields.EnergySCEE.Quantity, Value: fields.EnergySCEE.Value, UnitPrice: fields.EnergySCEE.UnitPrice},
			{Type: domain.CompensatedEnergy, Quantity: fields.CompensatedEnergy.Quantity, Value: fields.CompensatedEnergy.Value, UnitPrice: fields.CompensatedEnergy.UnitPrice},
		},
		History: &domain.ConsumptionHistory{Entries: fields.History},
	}
	return invoice, nil
}

// GetInvoiceByID retrieves an invoice visible to the given user
func (s *InvoiceServiceImpl) GetInvoiceByID(ctx context.Context, invoiceID string, user *domain.User) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	// outside the caller's companies, the invoice does not exist
	if !user.IsAdmin() && !user.MemberOf(invoice.CompanyID) {
		return nil, repository.ErrInvoiceNotFound
	}
	return invoice, nil
}

// ListInvoices retrieves invoices scoped to the companies the user belongs to
func (s *InvoiceServiceImpl) ListInvoices(ctx context.Context, filter domain.InvoiceFilter, user *domain.User) (*domain.PaginatedInvoices, error) {
	if !user.IsAdmin() {
		allowed := user.CompanyIDs()
		if len(filter.CompanyIDs) == 0 {
			filter.CompanyIDs = allowed
		} else {
			filter.CompanyIDs = intersect(filter.CompanyIDs, allowed)
		}
		if len(filter.CompanyIDs) == 0 {
			return &domain.PaginatedInvoices{
				Data:       []domain.Invoice{},
				Pagination: domain.Pagination{CurrentPage: 1, Limit: filter.Limit},
			}, nil
		}
		// filtering by arbitrary users is an admin capability
		filter.UserIDs = nil
	}
	return s.invoiceRepo.ListInvoices(ctx, filter)
}

// DeleteInvoice soft-deletes an invoice visible to the given user
func (s *InvoiceServiceImpl) DeleteInvoice(ctx context.Context, invoiceID string, user *domain.User) error {
	if _, err := s.GetInvoiceByID(ctx, invoiceID, user); err != nil {
		return err
	}
	return s.invoiceRepo.SoftDeleteInvoice(ctx, invoiceID)
}

// DownloadInvoice streams the stored original document of an invoice
func (s *InvoiceServiceImpl) DownloadInvoice(ctx context.Context, invoiceID string, user *domain.User) (io.ReadCloser, *domain.Invoice, error) {
	invoice, err := s.GetInvoiceByID(ctx, invoiceID, user)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.storage.Download(ctx, invoice.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download document: %w", err)
	}
	return reader, invoice, nil
}

// authorizeCompany resolves the target company and checks the caller can
// act on it. Unauthorized companies are reported as not found.
func (s *InvoiceServiceImpl) authorizeCompany(ctx context.Context, user *domain.User, companyID string) (*domain.Company, error) {
	if !user.IsAdmin() && !user.MemberOf(companyID) {
		return nil, repository.ErrCompanyNotFound
	}
	return s.companyRepo.GetCompanyByID(ctx, companyID)
}

func intersect(requested, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}
	var out []string
	for _, id := range requested {
		if _, ok := allowedSet[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ensure the S3 storage satisfies the service-side interface
var _ DocumentStorage = (*storage.S3Storage)(nil)
