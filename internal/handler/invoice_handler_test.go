package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
	"github.com/vcarvalho/energy-invoice-service/internal/extraction"
	"github.com/vcarvalho/energy-invoice-service/internal/model"
	"github.com/vcarvalho/energy-invoice-service/internal/repository"
	"github.com/vcarvalho/energy-invoice-service/internal/service"
)

type fakeAuthService struct {
	user *domain.User
}

func (f *fakeAuthService) Register(context.Context, string, string, string) (*service.AuthResponse, error) {
	return nil, nil
}

func (f *fakeAuthService) Login(context.Context, string, string) (*service.AuthResponse, error) {
	return nil, nil
}

func (f *fakeAuthService) ValidateAccessToken(string) (*service.Claims, error) {
	return &service.Claims{UserID: f.user.ID}, nil
}

func (f *fakeAuthService) GetUserByID(context.Context, string) (*domain.User, error) {
	return f.user, nil
}

type fakeInvoiceService struct {
	invoice   *domain.Invoice
	uploadErr error
	list      *domain.PaginatedInvoices
}

func (f *fakeInvoiceService) UploadInvoice(context.Context, []byte, string, *domain.User, string) (*domain.Invoice, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) GetInvoiceByID(context.Context, string, *domain.User) (*domain.Invoice, error) {
	if f.invoice == nil {
		return nil, repository.ErrInvoiceNotFound
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) ListInvoices(context.Context, domain.InvoiceFilter, *domain.User) (*domain.PaginatedInvoices, error) {
	return f.list, nil
}

func (f *fakeInvoiceService) DeleteInvoice(context.Context, string, *domain.User) error {
	if f.invoice == nil {
		return repository.ErrInvoiceNotFound
	}
	return nil
}

func (f *fakeInvoiceService) DownloadInvoice(context.Context, string, *domain.User) (io.ReadCloser, *domain.Invoice, error) {
	if f.invoice == nil {
		return nil, nil, repository.ErrInvoiceNotFound
	}
	return io.NopCloser(bytes.NewReader([]byte("%PDF"))), f.invoice, nil
}

func setupRouter(invoiceService service.InvoiceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	auth := &fakeAuthService{user: &domain.User{
		ID:        "user-1",
		Role:      domain.RoleCostumer,
		Companies: []domain.Company{{ID: "comp-1"}},
	}}

	group := router.Group("/v1")
	group.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
	})
	NewInvoiceHandler(invoiceService, auth).RegisterRoutes(group)
	return router
}

func multipartUpload(t *testing.T, url string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "conta.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadInvoiceCreated(t *testing.T) {
	invoice := &domain.Invoice{
		ID:          "inv-1",
		CompanyID:   "comp-1",
		TotalAmount: decimal.RequireFromString("58.75"),
		Distributor: "CEMIG",
	}
	router := setupRouter(&fakeInvoiceService{invoice: invoice})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "/v1/invoices/upload/comp-1"))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp model.InvoiceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "inv-1", resp.ID)
	assert.Equal(t, "58.75", resp.TotalAmount)
}

func TestUploadInvoiceUnparsableDocument(t *testing.T) {
	uploadErr := &service.InvoiceProcessingError{
		Op:  "parse_fields",
		Err: &extraction.FieldNotFoundError{Field: "installation"},
	}
	router := setupRouter(&fakeInvoiceService{uploadErr: uploadErr})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "/v1/invoices/upload/comp-1"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "installation", resp.Details[0].Field)
}

func TestUploadInvoiceNoReadableText(t *testing.T) {
	uploadErr := &service.InvoiceProcessingError{Op: "extract_text", Err: extraction.ErrNoText}
	router := setupRouter(&fakeInvoiceService{uploadErr: uploadErr})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "/v1/invoices/upload/comp-1"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestUploadInvoiceUnknownCompany(t *testing.T) {
	router := setupRouter(&fakeInvoiceService{uploadErr: repository.ErrCompanyNotFound})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "/v1/invoices/upload/comp-x"))

	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestUploadInvoiceMissingFile(t *testing.T) {
	router := setupRouter(&fakeInvoiceService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/upload/comp-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestGetInvoiceNotFound(t *testing.T) {
	router := setupRouter(&fakeInvoiceService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestListInvoicesResponseShape(t *testing.T) {
	list := &domain.PaginatedInvoices{
		Data: []domain.Invoice{{ID: "inv-1", CompanyID: "comp-1"}},
		Pagination: domain.Pagination{
			TotalItems: 1, TotalPages: 1, CurrentPage: 1, Limit: 20,
		},
	}
	router := setupRouter(&fakeInvoiceService{list: list})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.InvoicesListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Pagination.TotalItems)
}

func TestListInvoicesInvalidPagination(t *testing.T) {
	router := setupRouter(&fakeInvoiceService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices?page=0", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestDeleteInvoiceNoContent(t *testing.T) {
	router := setupRouter(&fakeInvoiceService{invoice: &domain.Invoice{ID: "inv-1"}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/invoices/inv-1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}
