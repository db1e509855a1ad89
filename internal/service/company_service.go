package service

import (
	"context"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
	"github.com/vcarvalho/energy-invoice-service/internal/repository"
)

// CompanyService defines the interface for company-related business logic
type CompanyService interface {
	CreateCompany(ctx context.Context, company *domain.Company, owner *domain.User) (*domain.Company, error)
	GetCompanyByID(ctx context.Context, companyID string, user *domain.User) (*domain.Company, error)
	ListCompanies(ctx context.Context, user *domain.User) ([]domain.Company, error)
}

// CompanyServiceImpl implements the CompanyService interface
type CompanyServiceImpl struct {
	companyRepo repository.CompanyRepository
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo repository.CompanyRepository) CompanyService {
	return &CompanyServiceImpl{companyRepo: companyRepo}
}

// CreateCompany creates a company owned by the caller
func (s *CompanyServiceImpl) CreateCompany(ctx context.Context, company *domain.Company, owner *domain.User) (*domain.Company, error) {
	company.OwnerID = owner.ID
	if err := s.companyRepo.CreateCompany(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// GetCompanyByID retrieves a company visible to the caller
func (s *CompanyServiceImpl) GetCompanyByID(ctx context.Context, companyID string, user *domain.User) (*domain.Company, error) {
	if !user.IsAdmin() && !user.MemberOf(companyID) {
		return nil, repository.ErrCompanyNotFound
	}
	return s.companyRepo.GetCompanyByID(ctx, companyID)
}

// ListCompanies retrieves the companies visible to the caller
func (s *CompanyServiceImpl) ListCompanies(ctx context.Context, user *domain.User) ([]domain.Company, error) {
	return s.companyRepo.ListCompanies(ctx, user)
}
