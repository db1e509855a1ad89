package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// querier is the subset of *pgxpool.Pool the repository needs. Keeping it
// narrow lets tests drive the transaction sequence with a stub.
type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL
type PostgresInvoiceRepository struct {
	db querier
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository
func NewPostgresInvoiceRepository(db querier) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

// CreateInvoice saves the whole invoice aggregate in one transaction:
// invoice row first (capturing the generated id), then each energy line
// item, then the consumption history row. Any failure rolls everything back.
func (r *PostgresInvoiceRepository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (installation, client, due_date, total_amount, public_contribution,
			nota_fiscal, referency_month, band, user_id, company_id, path, name, distributor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, invoice.Installation, invoice.Client, invoice.DueDate,
		invoice.TotalAmount.String(), invoice.PublicContribution.String(),
		invoice.NotaFiscal, invoice.ReferencyMonth, invoice.Band,
		invoice.UserID, invoice.CompanyID, invoice.Path, invoice.Name, invoice.Distributor).Scan(
		&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i := range invoice.EnergyData {
		item := &invoice.EnergyData[i]
		item.InvoiceID = invoice.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO energy_data (invoice_id, energy_data_type, quantity, value, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, invoice.ID, string(item.Type),
			item.Quantity.String(), item.Value.String(), item.UnitPrice.String()).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert energy data: %w", err)
		}
	}

	if invoice.History != nil {
		invoice.History.InvoiceID = invoice.ID
		historyJSON, err := json.Marshal(invoice.History.Entries)
		if err != nil {
			return nil, fmt.Errorf("failed to encode consumption history: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO history_energy (invoice_id, consumption_history)
			VALUES ($1, $2)
			RETURNING id
		`, invoice.ID, historyJSON).Scan(&invoice.History.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert consumption history: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return invoice, nil
}

// GetInvoiceByID retrieves an invoice by its ID, including its energy line
// items and consumption history. Soft-deleted invoices are not visible.
func (r *PostgresInvoiceRepository) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	var totalAmount, publicContribution string
	err := r.db.QueryRow(ctx, `
		SELECT id, installation, client, due_date, total_amount::text, public_contribution::text,
			nota_fiscal, referency_month, band, user_id, company_id, path, name, distributor,
			created_at, updated_at
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
	`, invoiceID).Scan(
		&invoice.ID, &invoice.Installation, &invoice.Client, &invoice.DueDate,
		&totalAmount, &publicContribution, &invoice.NotaFiscal, &invoice.ReferencyMonth,
		&invoice.Band, &invoice.UserID, &invoice.CompanyID, &invoice.Path,
		&invoice.Name, &invoice.Distributor, &invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if invoice.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, fmt.Errorf("failed to parse total_amount: %w", err)
	}
	if invoice.PublicContribution, err = decimal.NewFromString(publicContribution); err != nil {
		return nil, fmt.Errorf("failed to parse public_contribution: %w", err)
	}

	if err := r.loadEnergyData(ctx, map[string]*domain.Invoice{invoice.ID: &invoice}, []string{invoice.ID}); err != nil {
		return nil, err
	}
	if err := r.loadHistory(ctx, map[string]*domain.Invoice{invoice.ID: &invoice}, []string{invoice.ID}); err != nil {
		return nil, err
	}

	return &invoice, nil
}

// ListInvoices retrieves invoices with optional filters and pagination
func (r *PostgresInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	result := &domain.PaginatedInvoices{
		Data:       []domain.Invoice{},
		Pagination: domain.Pagination{},
	}

	// Set default pagination values if not provided
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	// Build query conditions
	conditions := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argCount := 1

	if filter.InitialDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCount))
		args = append(args, filter.InitialDate)
		argCount++
	}
	if filter.FinalDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argCount))
		args = append(args, filter.FinalDate)
		argCount++
	}
	if filter.MinAmount != nil {
		conditions = append(conditions, fmt.Sprintf("total_amount >= $%d", argCount))
		args = append(args, filter.MinAmount.String())
		argCount++
	}
	if filter.MaxAmount != nil {
		conditions = append(conditions, fmt.Sprintf("total_amount <= $%d", argCount))
		args = append(args, filter.MaxAmount.String())
		argCount++
	}
	if len(filter.CompanyIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("company_id = ANY($%d)", argCount))
		args = append(args, filter.CompanyIDs)
		argCount++
	}
	if len(filter.UserIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("user_id = ANY($%d)", argCount))
		args = append(args, filter.UserIDs)
		argCount++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	// Count total items
	var totalItems int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM invoices %s`, whereClause)
	err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalItems)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	result.Pagination.TotalItems = totalItems
	result.Pagination.Limit = filter.Limit
	result.Pagination.CurrentPage = filter.Page
	result.Pagination.TotalPages = int(math.Ceil(float64(totalItems) / float64(filter.Limit)))

	if totalItems == 0 {
		return result, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	query := fmt.Sprintf(`
		SELECT id, installation, client, due_date, total_amount::text, public_contribution::text,
			nota_fiscal, referency_month, band, user_id, company_id, path, name, distributor,
			created_at, updated_at
		FROM invoices
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argCount, argCount+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoiceMap := make(map[string]*domain.Invoice)
	var invoiceIDs []string

	for rows.Next() {
		var invoice domain.Invoice
		var totalAmount, publicContribution string
		if err := rows.Scan(
			&invoice.ID, &invoice.Installation, &invoice.Client, &invoice.DueDate,
			&totalAmount, &publicContribution, &invoice.NotaFiscal, &invoice.ReferencyMonth,
			&invoice.Band, &invoice.UserID, &invoice.CompanyID, &invoice.Path,
			&invoice.Name, &invoice.Distributor, &invoice.CreatedAt, &invoice.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		if invoice.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
			return nil, fmt.Errorf("failed to parse total_amount: %w", err)
		}
		if invoice.PublicContribution, err = decimal.NewFromString(publicContribution); err != nil {
			return nil, fmt.Errorf("failed to parse public_contribution: %w", err)
		}
		invoice.EnergyData = []domain.EnergyData{}
		invoiceMap[invoice.ID] = &invoice
		invoiceIDs = append(invoiceIDs, invoice.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	if len(invoiceIDs) == 0 {
		return result, nil
	}

	if err := r.loadEnergyData(ctx, invoiceMap, invoiceIDs); err != nil {
		return nil, err
	}
	if err := r.loadHistory(ctx, invoiceMap, invoiceIDs); err != nil {
		return nil, err
	}

	for _, id := range invoiceIDs {
		result.Data = append(result.Data, *invoiceMap[id])
	}

	return result, nil
}

// SoftDeleteInvoice sets deleted_at on the invoice and its dependent rows
// in one transaction. Rows are retained.
func (r *PostgresInvoiceRepository) SoftDeleteInvoice(ctx context.Context, invoiceID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	commandTag, err := tx.Exec(ctx, `
		UPDATE invoices SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}

	if _, err = tx.Exec(ctx, `
		UPDATE energy_data SET deleted_at = now() WHERE invoice_id = $1 AND deleted_at IS NULL
	`, invoiceID); err != nil {
		return fmt.Errorf("failed to delete energy data: %w", err)
	}
	if _, err = tx.Exec(ctx, `
		UPDATE history_energy SET deleted_at = now() WHERE invoice_id = $1 AND deleted_at IS NULL
	`, invoiceID); err != nil {
		return fmt.Errorf("failed to delete consumption history: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// loadEnergyData populates the energy line items of the given invoices in a
// single query.
func (r *PostgresInvoiceRepository) loadEnergyData(ctx context.Context, invoiceMap map[string]*domain.Invoice, invoiceIDs []string) error {
	rows, err := r.db.Query(ctx, `
		SELECT invoice_id, id, energy_data_type, quantity::text, value::text, unit_price::text
		FROM energy_data
		WHERE invoice_id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
	`, invoiceIDs)
	if err != nil {
		return fmt.Errorf("failed to query energy data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID, energyType, quantity, value, unitPrice string
		var item domain.EnergyData
		if err := rows.Scan(&invoiceID, &item.ID, &energyType, &quantity, &value, &unitPrice); err != nil {
			return fmt.Errorf("failed to scan energy data: %w", err)
		}
		item.InvoiceID = invoiceID
		item.Type = domain.EnergyType(energyType)
		if item.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return fmt.Errorf("failed to parse quantity: %w", err)
		}
		if item.Value, err = decimal.NewFromString(value); err != nil {
			return fmt.Errorf("failed to parse value: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return fmt.Errorf("failed to parse unit_price: %w", err)
		}
		if invoice, ok := invoiceMap[invoiceID]; ok {
			invoice.EnergyData = append(invoice.EnergyData, item)
		}
	}
	return rows.Err()
}

// loadHistory populates the consumption history of the given invoices in a
// single query.
func (r *PostgresInvoiceRepository) loadHistory(ctx context.Context, invoiceMap map[string]*domain.Invoice, invoiceIDs []string) error {
	rows, err := r.db.Query(ctx, `
		SELECT invoice_id, id, consumption_history
		FROM history_energy
		WHERE invoice_id = ANY($1) AND deleted_at IS NULL
	`, invoiceIDs)
	if err != nil {
		return fmt.Errorf("failed to query consumption history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var history domain.ConsumptionHistory
		var entriesJSON []byte
		if err := rows.Scan(&history.InvoiceID, &history.ID, &entriesJSON); err != nil {
			return fmt.Errorf("failed to scan consumption history: %w", err)
		}
		if err := json.Unmarshal(entriesJSON, &history.Entries); err != nil {
			return fmt.Errorf("failed to decode consumption history: %w", err)
		}
		if invoice, ok := invoiceMap[history.InvoiceID]; ok {
			h := history
			invoice.History = &h
		}
	}
	return rows.Err()
}
