package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInvoice represents an invoice in the API
type TestInvoice struct {
	ID             string `json:"id"`
	Installation   string `json:"installation"`
	Client         string `json:"client"`
	DueDate        string `json:"dueDate"`
	TotalAmount    string `json:"totalAmount"`
	ReferencyMonth string `json:"referencyMonth"`
	Band           string `json:"band"`
	CompanyID      string `json:"companyId"`
	Distributor    string `json:"distributor"`
	EnergyData     []struct {
		Type      string `json:"energyDataType"`
		Quantity  string `json:"quantity"`
		Value     string `json:"value"`
		UnitPrice string `json:"unitPrice"`
	} `json:"energyData"`
	HistoryEnergy []struct {
		Month       string `json:"month"`
		Year        string `json:"year"`
		Consumption string `json:"consumption"`
	} `json:"historyEnergy"`
}

// TestInvoiceList represents the response from GET /invoices
type TestInvoiceList struct {
	Data       []TestInvoice `json:"data"`
	Pagination struct {
		TotalItems  int `json:"totalItems"`
		TotalPages  int `json:"totalPages"`
		CurrentPage int `json:"currentPage"`
		Limit       int `json:"limit"`
	} `json:"pagination"`
}

// TestInvoiceAPI exercises the invoice endpoints end to end against a
// running server. Set API_BASE_URL and BILL_PDF_PATH to enable it.
func TestInvoiceAPI(t *testing.T) {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		t.Skip("API_BASE_URL not set, skipping integration test")
	}
	billPath := os.Getenv("BILL_PDF_PATH")
	if billPath == "" {
		t.Skip("BILL_PDF_PATH not set, skipping integration test")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var accessToken string
	var companyID string
	var invoiceID string

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())

	t.Run("Register", func(t *testing.T) {
		body, err := json.Marshal(map[string]string{
			"name":     "Integration Tester",
			"email":    email,
			"password": "senha-de-teste",
		})
		require.NoError(t, err)

		resp, err := client.Post(baseURL+"/auth/register", "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var auth struct {
			AccessToken string `json:"accessToken"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
		require.NotEmpty(t, auth.AccessToken)
		accessToken = auth.AccessToken
	})

	t.Run("CreateCompany", func(t *testing.T) {
		body, err := json.Marshal(map[string]string{
			"name": "Empresa de Teste",
			"cnpj": "12.345.678/0001-90",
		})
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPost, baseURL+"/companies", bytes.NewBuffer(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var company struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&company))
		require.NotEmpty(t, company.ID)
		companyID = company.ID
	})

	t.Run("UploadInvoice", func(t *testing.T) {
		pdfData, err := os.ReadFile(billPath)
		require.NoError(t, err, "Failed to read bill PDF")

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "conta.pdf")
		require.NoError(t, err)
		_, err = part.Write(pdfData)
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		url := fmt.Sprintf("%s/invoices/upload/%s", baseURL, companyID)
		req, err := http.NewRequest(http.MethodPost, url, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			bodyBytes, _ := io.ReadAll(resp.Body)
			t.Logf("Response body: %s", string(bodyBytes))
			resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var invoice TestInvoice
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&invoice))

		assert.NotEmpty(t, invoice.ID)
		assert.NotEmpty(t, invoice.Installation)
		assert.NotEmpty(t, invoice.ReferencyMonth)
		assert.Equal(t, "CEMIG", invoice.Distributor)
		assert.Equal(t, companyID, invoice.CompanyID)
		assert.Len(t, invoice.EnergyData, 3)
		assert.NotEmpty(t, invoice.HistoryEnergy)
		invoiceID = invoice.ID
	})

	t.Run("ListInvoices", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/invoices?limit=10", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list TestInvoiceList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		require.NotEmpty(t, list.Data)
		assert.GreaterOrEqual(t, list.Pagination.TotalItems, 1)
	})

	t.Run("GetInvoice", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/invoices/"+invoiceID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var invoice TestInvoice
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&invoice))
		assert.Equal(t, invoiceID, invoice.ID)
	})

	t.Run("DownloadInvoice", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/invoices/"+invoiceID+"/download", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("DeleteInvoice", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, baseURL+"/invoices/"+invoiceID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		// a deleted invoice is gone from reads
		req, err = http.NewRequest(http.MethodGet, baseURL+"/invoices/"+invoiceID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err = client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
