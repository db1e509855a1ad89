package repository

import (
	"context"
	"errors"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// ErrCompanyNotFound indicates the company does not exist or is soft-deleted.
var ErrCompanyNotFound = errors.New("company not found")

// CompanyRepository defines the interface for company data storage operations
type CompanyRepository interface {
	// CreateCompany creates a company and links its owner as a member
	CreateCompany(ctx context.Context, company *domain.Company) error

	// GetCompanyByID retrieves a company by its ID
	GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)

	// ListCompanies retrieves the companies visible to the given user:
	// all companies for admins, otherwise the ones the user belongs to.
	ListCompanies(ctx context.Context, user *domain.User) ([]domain.Company, error)
}
