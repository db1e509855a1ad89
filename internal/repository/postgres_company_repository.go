package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// PostgresCompanyRepository implements CompanyRepository using PostgreSQL
type PostgresCompanyRepository struct {
	db querier
}

// NewPostgresCompanyRepository creates a new PostgreSQL company repository
func NewPostgresCompanyRepository(db querier) CompanyRepository {
	return &PostgresCompanyRepository{db: db}
}

// CreateCompany creates a company and its owner membership in one transaction
func (r *PostgresCompanyRepository) CreateCompany(ctx context.Context, company *domain.Company) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO companies (name, cnpj, address, city, uf, cep, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, company.Name, company.CNPJ, company.Address, company.City,
		company.UF, company.CEP, company.OwnerID).Scan(
		&company.ID, &company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO company_user (company_id, user_id) VALUES ($1, $2)
	`, company.ID, company.OwnerID); err != nil {
		return fmt.Errorf("failed to link company owner: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCompanyByID retrieves a company by its ID
func (r *PostgresCompanyRepository) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.QueryRow(ctx, `
		SELECT id, name, cnpj, address, city, uf, cep, owner_id, created_at, updated_at
		FROM companies
		WHERE id = $1 AND deleted_at IS NULL
	`, companyID).Scan(
		&company.ID, &company.Name, &company.CNPJ, &company.Address,
		&company.City, &company.UF, &company.CEP, &company.OwnerID,
		&company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// ListCompanies retrieves the companies visible to the given user
func (r *PostgresCompanyRepository) ListCompanies(ctx context.Context, user *domain.User) ([]domain.Company, error) {
	query := `
		SELECT id, name, cnpj, address, city, uf, cep, owner_id, created_at, updated_at
		FROM companies
		WHERE deleted_at IS NULL
		ORDER BY created_at
	`
	args := []interface{}{}
	if !user.IsAdmin() {
		query = `
			SELECT c.id, c.name, c.cnpj, c.address, c.city, c.uf, c.cep, c.owner_id, c.created_at, c.updated_at
			FROM companies c
			JOIN company_user cu ON cu.company_id = c.id
			WHERE cu.user_id = $1 AND c.deleted_at IS NULL
			ORDER BY c.created_at
		`
		args = append(args, user.ID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	companies := []domain.Company{}
	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(
			&company.ID, &company.Name, &company.CNPJ, &company.Address,
			&company.City, &company.UF, &company.CEP, &company.OwnerID,
			&company.CreatedAt, &company.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}
	return companies, nil
}
