package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
	"github.com/vcarvalho/energy-invoice-service/internal/model"
	"github.com/vcarvalho/energy-invoice-service/internal/repository"
	"github.com/vcarvalho/energy-invoice-service/internal/service"
)

// CompanyHandler handles HTTP requests for company management
type CompanyHandler struct {
	companyService service.CompanyService
	authService    service.AuthService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService service.CompanyService, authService service.AuthService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		authService:    authService,
	}
}

// RegisterRoutes registers the handler's routes with the given router group
func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/companies", h.CreateCompany)
	router.GET("/companies", h.ListCompanies)
	router.GET("/companies/:id", h.GetCompany)
}

// CreateCompany handles a request to register a company
// @Summary Create a company
// @Tags companies
// @Accept json
// @Produce json
// @Param request body model.CreateCompanyRequest true "Company payload"
// @Success 201 {object} model.CompanyResponse
// @Failure 400 {object} model.ErrorResponse "Invalid payload"
// @Security BearerAuth
// @Router /v1/companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req model.CreateCompanyRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("", err.Error()))
		return
	}

	company := &domain.Company{
		Name:    req.Name,
		CNPJ:    req.CNPJ,
		Address: req.Address,
		City:    req.City,
		UF:      req.UF,
		CEP:     req.CEP,
	}

	created, err := h.companyService.CreateCompany(c.Request.Context(), company, user)
	if err != nil {
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondCreated(c, toCompanyResponse(created))
}

// ListCompanies handles a request to list the caller's companies
// @Summary List companies
// @Tags companies
// @Produce json
// @Success 200 {array} model.CompanyResponse
// @Security BearerAuth
// @Router /v1/companies [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	companies, err := h.companyService.ListCompanies(c.Request.Context(), user)
	if err != nil {
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	resp := make([]model.CompanyResponse, 0, len(companies))
	for i := range companies {
		resp = append(resp, toCompanyResponse(&companies[i]))
	}
	respondOK(c, resp)
}

// GetCompany handles a request to fetch one company
// @Summary Get a company
// @Tags companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} model.CompanyResponse
// @Failure 404 {object} model.ErrorResponse "Company not found"
// @Security BearerAuth
// @Router /v1/companies/{id} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	companyID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	company, err := h.companyService.GetCompanyByID(c.Request.Context(), companyID, user)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, toCompanyResponse(company))
}

// currentUser resolves the authenticated user set by the auth middleware
func (h *CompanyHandler) currentUser(c *gin.Context) (*domain.User, bool) {
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

// toCompanyResponse maps a domain company to its API representation
func toCompanyResponse(company *domain.Company) model.CompanyResponse {
	return model.CompanyResponse{
		ID:        company.ID,
		Name:      company.Name,
		CNPJ:      company.CNPJ,
		Address:   company.Address,
		City:      company.City,
		UF:        company.UF,
		CEP:       company.CEP,
		OwnerID:   company.OwnerID,
		CreatedAt: company.CreatedAt.Format(time.RFC3339),
		UpdatedAt: company.UpdatedAt.Format(time.RFC3339),
	}
}
