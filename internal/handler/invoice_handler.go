package handler

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
	"github.com/vcarvalho/energy-invoice-service/internal/extraction"
	"github.com/vcarvalho/energy-invoice-service/internal/model"
	"github.com/vcarvalho/energy-invoice-service/internal/repository"
	"github.com/vcarvalho/energy-invoice-service/internal/service"
)

// InvoiceHandler handles HTTP requests for invoice ingestion and querying
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	authService    service.AuthService
	maxFileSize    int64
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService service.InvoiceService, authService service.AuthService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		authService:    authService,
		maxFileSize:    10 * 1024 * 1024, // 10MB default
	}
}

// RegisterRoutes registers the handler's routes with the given router group
func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/invoices/upload/:companyId", h.UploadInvoice)
	router.GET("/invoices", h.ListInvoices)
	router.GET("/invoices/:id", h.GetInvoice)
	router.GET("/invoices/:id/download", h.DownloadInvoice)
	router.DELETE("/invoices/:id", h.DeleteInvoice)
}

// UploadInvoice handles a request to ingest a single electricity bill PDF
// @Summary Upload an electricity bill
// @Description Upload a bill PDF, extract its fields and persist the invoice
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param companyId path string true "Company ID the invoice belongs to"
// @Param file formData file true "Bill PDF file"
// @Success 201 {object} model.InvoiceResponse "Successfully ingested invoice"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 404 {object} model.ErrorResponse "Company not found"
// @Failure 422 {object} model.ErrorResponse "Document could not be parsed"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /v1/invoices/upload/{companyId} [post]
func (h *InvoiceHandler) UploadInvoice(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	companyID, err := getPathParam(c, "companyId")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := c.Request.ParseMultipartForm(h.maxFileSize); err != nil {
		respondBadRequest(c, "Failed to parse form data: "+err.Error())
		return
	}

	file, header, err := getFormFile(c, "file")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		respondBadRequest(c, "File size exceeds limit")
		return
	}

	fileData, err := io.ReadAll(file)
	if err != nil {
		respondInternalServerError(c, "Failed to read file data: "+err.Error())
		return
	}

	log.Printf("Ingesting bill document: %s (%d bytes)", header.Filename, header.Size)
	invoice, err := h.invoiceService.UploadInvoice(c.Request.Context(), fileData, header.Filename, user, companyID)
	if err != nil {
		h.respondProcessingError(c, err)
		return
	}

	respondCreated(c, toInvoiceResponse(invoice))
}

// ListInvoices handles a request to list invoices with filters
// @Summary List invoices
// @Description List invoices visible to the caller, with optional filters
// @Tags invoices
// @Produce json
// @Param initialDate query string false "Earliest creation date (YYYY-MM-DD)"
// @Param finalDate query string false "Latest creation date (YYYY-MM-DD)"
// @Param minAmount query number false "Minimum total amount"
// @Param maxAmount query number false "Maximum total amount"
// @Param companyId query []string false "Company IDs to filter by"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} model.InvoicesListResponse
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Security BearerAuth
// @Router /v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	filter, err := buildInvoiceFilter(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("", err.Error()))
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), *filter, user)
	if err != nil {
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, toInvoicesListResponse(result))
}

// GetInvoice handles a request to fetch one invoice
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} model.InvoiceResponse
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Security BearerAuth
// @Router /v1/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	invoiceID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), invoiceID, user)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, toInvoiceResponse(invoice))
}

// DownloadInvoice streams the original document of an invoice
// @Summary Download the original bill document
// @Tags invoices
// @Produce application/pdf
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Security BearerAuth
// @Router /v1/invoices/{id}/download [get]
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	invoiceID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	reader, invoice, err := h.invoiceService.DownloadInvoice(c.Request.Context(), invoiceID, user)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		respondInternalServerError(c, ErrInternalServer)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+invoice.Name+`"`)
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		log.Printf("Failed to stream document %s: %v", invoice.Path, err)
	}
}

// DeleteInvoice soft-deletes an invoice
// @Summary Delete an invoice
// @Tags invoices
// @Param id path string true "Invoice ID"
// @Success 204 "Deleted"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Security BearerAuth
// @Router /v1/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	invoiceID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), invoiceID, user); err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondNoContent(c)
}

// currentUser resolves the authenticated user set by the auth middleware
func (h *InvoiceHandler) currentUser(c *gin.Context) (*domain.User, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		respondUnauthorized(c, "Authentication required")
		return nil, false
	}
	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondUnauthorized(c, "Invalid user")
		return nil, false
	}
	return user, true
}

// respondProcessingError maps pipeline failures to HTTP responses. A bill
// the pipeline cannot read is the client's problem, not the server's.
func (h *InvoiceHandler) respondProcessingError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrCompanyNotFound) {
		respondNotFound(c, ErrResourceNotFound)
		return
	}

	var fieldErr *extraction.FieldNotFoundError
	if errors.As(err, &fieldErr) {
		respondUnprocessableEntity(c, ErrDataExtraction, newErrorDetail(fieldErr.Field, fieldErr.Error()))
		return
	}
	if errors.Is(err, extraction.ErrNoText) {
		respondUnprocessableEntity(c, ErrDataExtraction, newErrorDetail("", "document contains no readable text"))
		return
	}

	var procErr *service.InvoiceProcessingError
	if errors.As(err, &procErr) {
		log.Printf("Invoice processing failed at %s: %v", procErr.Op, procErr.Err)
	} else {
		log.Printf("Invoice processing failed: %v", err)
	}
	respondInternalServerError(c, ErrInternalServer)
}

// buildInvoiceFilter reads the list query parameters into a filter
func buildInvoiceFilter(c *gin.Context) (*domain.InvoiceFilter, error) {
	page, err := getQueryInt(c, "page", 1)
	if err != nil {
		return nil, err
	}
	limit, err := getQueryInt(c, "limit", 20)
	if err != nil {
		return nil, err
	}
	if err := validatePagination(page, limit); err != nil {
		return nil, err
	}

	filter := &domain.InvoiceFilter{
		Page:       page,
		Limit:      limit,
		CompanyIDs: c.QueryArray("companyId"),
		UserIDs:    c.QueryArray("userId"),
	}

	if initial, err := parseDate(c.Query("initialDate")); err != nil {
		return nil, err
	} else if !initial.IsZero() {
		filter.InitialDate = &initial
	}
	if final, err := parseDate(c.Query("finalDate")); err != nil {
		return nil, err
	} else if !final.IsZero() {
		filter.FinalDate = &final
	}

	if filter.MinAmount, err = getQueryDecimal(c, "minAmount"); err != nil {
		return nil, err
	}
	if filter.MaxAmount, err = getQueryDecimal(c, "maxAmount"); err != nil {
		return nil, err
	}

	return filter, nil
}

// toInvoiceResponse maps a domain invoice to its API representation
func toInvoiceResponse(invoice *domain.Invoice) model.InvoiceResponse {
	resp := model.InvoiceResponse{
		ID:                 invoice.ID,
		Installation:       invoice.Installation,
		Client:             invoice.Client,
		DueDate:            invoice.DueDate,
		TotalAmount:        invoice.TotalAmount.String(),
		PublicContribution: invoice.PublicContribution.String(),
		NotaFiscal:         invoice.NotaFiscal,
		ReferencyMonth:     invoice.ReferencyMonth,
		Band:               invoice.Band,
		UserID:             invoice.UserID,
		CompanyID:          invoice.CompanyID,
		Name:               invoice.Name,
		Distributor:        invoice.Distributor,
		CreatedAt:          invoice.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          invoice.UpdatedAt.Format(time.RFC3339),
	}

	for _, e := range invoice.EnergyData {
		resp.EnergyData = append(resp.EnergyData, model.EnergyDataResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Quantity:  e.Quantity.String(),
			Value:     e.Value.String(),
			UnitPrice: e.UnitPrice.String(),
		})
	}

	if invoice.History != nil {
		for _, entry := range invoice.History.Entries {
			resp.HistoryEnergy = append(resp.HistoryEnergy, model.ConsumptionEntryResponse{
				Month:       entry.Month,
				Year:        entry.Year,
				Consumption: entry.Consumption,
			})
		}
	}

	return resp
}

// toInvoicesListResponse maps a paginated result to its API representation
func toInvoicesListResponse(result *domain.PaginatedInvoices) model.InvoicesListResponse {
	resp := model.InvoicesListResponse{
		Data: make([]model.InvoiceResponse, 0, len(result.Data)),
		Pagination: model.PaginationResponse{
			TotalItems:  result.Pagination.TotalItems,
			TotalPages:  result.Pagination.TotalPages,
			CurrentPage: result.Pagination.CurrentPage,
			Limit:       result.Pagination.Limit,
		},
	}
	for i := range result.Data {
		resp.Data = append(resp.Data, toInvoiceResponse(&result.Data[i]))
	}
	return resp
}
