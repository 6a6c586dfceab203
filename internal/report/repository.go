package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// Store persists commission reports
type Store interface {
	// Append writes the report and its breakdown as one unit. Appending an
	// id that already exists is a no-op.
	Append(ctx context.Context, r *CommissionReport) error
	GetByID(ctx context.Context, id string) (*CommissionReport, error)
	// ListAll returns every report, newest first
	ListAll(ctx context.Context) ([]*CommissionReport, error)
	// UpdateStatus moves the report from -> to only if it currently equals from
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (*CommissionReport, error)
}

const reportColumns = `
	id, report_period, start_date, end_date,
	total_gross_revenue, total_commission_amount, total_net_revenue,
	transaction_count, report_status, generated_at, reviewed_at, processed_at`

// Repository handles commission report persistence in Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new report repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*CommissionReport, error) {
	r := &CommissionReport{}
	var reviewedAt, processedAt sql.NullTime
	err := row.Scan(
		&r.ID,
		&r.ReportPeriod,
		&r.StartDate,
		&r.EndDate,
		&r.TotalGrossRevenue,
		&r.TotalCommissionAmount,
		&r.TotalNetRevenue,
		&r.TransactionCount,
		&r.ReportStatus,
		&r.GeneratedAt,
		&reviewedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	if processedAt.Valid {
		t := processedAt.Time
		r.ProcessedAt = &t
	}
	r.OwnerBreakdown = []OwnerBreakdown{}
	return r, nil
}

// Append inserts the report header and owner rows in a single transaction
func (r *Repository) Append(ctx context.Context, report *CommissionReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin report insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO commission_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`,
		report.ID, report.ReportPeriod, report.StartDate, report.EndDate,
		report.TotalGrossRevenue, report.TotalCommissionAmount, report.TotalNetRevenue,
		report.TransactionCount, report.ReportStatus, report.GeneratedAt,
		report.ReviewedAt, report.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO commission_report_owners (
			report_id, position, owner_account_id, owner_name, owner_type,
			gross_revenue, commission_amount, net_revenue, transaction_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare owner insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range report.OwnerBreakdown {
		if _, err := stmt.ExecContext(ctx,
			report.ID, i, o.OwnerAccountID, o.OwnerName, o.OwnerType,
			o.GrossRevenue, o.CommissionAmount, o.NetRevenue, o.TransactionCount,
		); err != nil {
			return fmt.Errorf("failed to create report owner %s: %w", o.OwnerAccountID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// GetByID retrieves a report with its owner breakdown
func (r *Repository) GetByID(ctx context.Context, id string) (*CommissionReport, error) {
	report, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM commission_reports WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if err := r.loadOwners(ctx, map[string]*CommissionReport{report.ID: report}); err != nil {
		return nil, err
	}
	return report, nil
}

// ListAll retrieves every report, newest first
func (r *Repository) ListAll(ctx context.Context) ([]*CommissionReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM commission_reports ORDER BY generated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*CommissionReport{}
	byID := make(map[string]*CommissionReport)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
		byID[report.ID] = report
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	if len(byID) > 0 {
		if err := r.loadOwners(ctx, byID); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

func (r *Repository) loadOwners(ctx context.Context, byID map[string]*CommissionReport) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT report_id, owner_account_id, owner_name, owner_type,
		       gross_revenue, commission_amount, net_revenue, transaction_count
		FROM commission_report_owners
		WHERE report_id = ANY($1)
		ORDER BY report_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load report owners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reportID string
		var o OwnerBreakdown
		if err := rows.Scan(&reportID, &o.OwnerAccountID, &o.OwnerName, &o.OwnerType,
			&o.GrossRevenue, &o.CommissionAmount, &o.NetRevenue, &o.TransactionCount); err != nil {
			return fmt.Errorf("failed to scan report owner: %w", err)
		}
		if report, ok := byID[reportID]; ok {
			report.OwnerBreakdown = append(report.OwnerBreakdown, o)
		}
	}
	return rows.Err()
}

// UpdateStatus performs a conditional status update and stamps the matching timestamp
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (*CommissionReport, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE commission_reports
		SET report_status = $3,
		    reviewed_at  = CASE WHEN $3::text = 'Reviewed'  THEN $4::timestamptz ELSE reviewed_at END,
		    processed_at = CASE WHEN $3::text = 'Processed' THEN $4::timestamptz ELSE processed_at END
		WHERE id = $1 AND report_status = $2
	`, id, from, to, at)
	if err != nil {
		return nil, fmt.Errorf("failed to update report status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	report, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, apperr.NotFound("report", id)
	}
	if n == 0 {
		return nil, apperr.Transition("report_status", string(report.ReportStatus), string(to))
	}
	return report, nil
}
