package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db querier
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db querier) UserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in the database
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleCostumer
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.PasswordHash, string(user.Role)).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}

// GetUserByID retrieves a user by ID, including the companies they belong to
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`, userID).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = domain.Role(role)

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.cnpj, c.address, c.city, c.uf, c.cep, c.owner_id, c.created_at, c.updated_at
		FROM companies c
		JOIN company_user cu ON cu.company_id = c.id
		WHERE cu.user_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user companies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(
			&company.ID, &company.Name, &company.CNPJ, &company.Address,
			&company.City, &company.UF, &company.CEP, &company.OwnerID,
			&company.CreatedAt, &company.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		user.Companies = append(user.Companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user companies: %w", err)
	}

	return &user, nil
}
