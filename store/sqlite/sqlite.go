/*
Package sqlite provides a SQLite-backed implementation of loan.Store.

PURPOSE:
  Persists loans, rate periods, payment events, and the scheduled plan.
  The engine never touches this package; handlers load rows here and
  feed them to the pure math.

KEY TABLES:
  loans:              Loan terms (principal, start, amortization, basis)
  rate_periods:       (loan, effective date) -> annual rate, upserted
  payment_events:     Money actually received
  scheduled_payments: The static monthly plan

STORAGE CONVENTIONS:
  Dates are TEXT in YYYY-MM-DD (sorts correctly as a string). Monetary
  values and rates are TEXT holding exact decimal strings; they are
  parsed back through shopspring/decimal, never through float64.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and crash recovery is cheap.

USAGE:
  store, err := sqlite.New("./data/loans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// Store implements loan.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		principal TEXT NOT NULL,
		start_date TEXT NOT NULL,
		amort_months INTEGER NOT NULL,
		day_count_basis INTEGER NOT NULL,
		fixed_monthly_payment TEXT NOT NULL,
		prime_spread TEXT NOT NULL DEFAULT '-0.0025',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rate_periods (
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		effective_date TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		PRIMARY KEY (loan_id, effective_date)
	);

	CREATE TABLE IF NOT EXISTS payment_events (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		paid_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		kind TEXT NOT NULL,
		note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payment_events_loan_date
		ON payment_events(loan_id, paid_date);

	CREATE TABLE IF NOT EXISTS scheduled_payments (
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		due_date TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		PRIMARY KEY (loan_id, due_date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOANS
// =============================================================================

func (s *Store) SaveLoan(ctx context.Context, rec loan.LoanRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (id, name, principal, start_date, amort_months,
			day_count_basis, fixed_monthly_payment, prime_spread, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			principal = excluded.principal,
			start_date = excluded.start_date,
			amort_months = excluded.amort_months,
			day_count_basis = excluded.day_count_basis,
			fixed_monthly_payment = excluded.fixed_monthly_payment,
			prime_spread = excluded.prime_spread`,
		rec.ID, rec.Name, rec.Principal.String(), rec.StartDate.String(),
		rec.AmortMonths, int(rec.DayCountBasis), rec.FixedMonthlyPayment.String(),
		rec.PrimeSpread.String(), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save loan: %w", err)
	}
	return nil
}

func (s *Store) GetLoan(ctx context.Context, id string) (*loan.LoanRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, principal, start_date, amort_months,
			day_count_basis, fixed_monthly_payment, prime_spread, created_at
		FROM loans WHERE id = ?`, id)

	rec, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, loan.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) ListLoans(ctx context.Context) ([]loan.LoanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, principal, start_date, amort_months,
			day_count_basis, fixed_monthly_payment, prime_spread, created_at
		FROM loans ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loan.LoanRecord
	for rows.Next() {
		rec, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(r rowScanner) (*loan.LoanRecord, error) {
	var (
		rec                                     loan.LoanRecord
		principal, start, payment, spread, made string
		basis                                   int
	)
	if err := r.Scan(&rec.ID, &rec.Name, &principal, &start, &rec.AmortMonths,
		&basis, &payment, &spread, &made); err != nil {
		return nil, err
	}

	var err error
	if rec.Principal, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("bad principal for loan %s: %w", rec.ID, err)
	}
	if rec.FixedMonthlyPayment, err = decimal.NewFromString(payment); err != nil {
		return nil, fmt.Errorf("bad payment for loan %s: %w", rec.ID, err)
	}
	if rec.PrimeSpread, err = decimal.NewFromString(spread); err != nil {
		return nil, fmt.Errorf("bad prime spread for loan %s: %w", rec.ID, err)
	}
	if rec.StartDate, err = loan.ParseDate(start); err != nil {
		return nil, fmt.Errorf("bad start date for loan %s: %w", rec.ID, err)
	}
	rec.DayCountBasis = loan.DayCountBasis(basis)
	if t, err := time.Parse(time.RFC3339, made); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// =============================================================================
// RATE PERIODS
// =============================================================================

func (s *Store) UpsertRatePeriod(ctx context.Context, rec loan.RatePeriodRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_periods (loan_id, effective_date, annual_rate)
		VALUES (?, ?, ?)
		ON CONFLICT(loan_id, effective_date) DO UPDATE SET
			annual_rate = excluded.annual_rate`,
		rec.LoanID, rec.EffectiveDate.String(), rec.AnnualRate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rate period: %w", err)
	}
	return nil
}

func (s *Store) ListRatePeriods(ctx context.Context, loanID string) ([]loan.RatePeriodRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT loan_id, effective_date, annual_rate
		FROM rate_periods WHERE loan_id = ? ORDER BY effective_date`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loan.RatePeriodRecord
	for rows.Next() {
		var (
			rec              loan.RatePeriodRecord
			effective, value string
		)
		if err := rows.Scan(&rec.LoanID, &effective, &value); err != nil {
			return nil, err
		}
		if rec.EffectiveDate, err = loan.ParseDate(effective); err != nil {
			return nil, err
		}
		if rec.AnnualRate, err = decimal.NewFromString(value); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYMENT EVENTS
// =============================================================================

func (s *Store) AppendPaymentEvent(ctx context.Context, rec loan.PaymentEventRecord) error {
	var note any
	if rec.Note != "" {
		note = rec.Note
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_events (id, loan_id, paid_date, amount, kind, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.LoanID, rec.Date.String(), rec.Amount.String(), string(rec.Kind), note,
	)
	if err != nil {
		return fmt.Errorf("failed to append payment event: %w", err)
	}
	return nil
}

func (s *Store) ListPaymentEvents(ctx context.Context, loanID string) ([]loan.PaymentEventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, loan_id, paid_date, amount, kind, note
		FROM payment_events WHERE loan_id = ? ORDER BY paid_date, id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loan.PaymentEventRecord
	for rows.Next() {
		var (
			rec                loan.PaymentEventRecord
			paid, amount, kind string
			note               sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.LoanID, &paid, &amount, &kind, &note); err != nil {
			return nil, err
		}
		if rec.Date, err = loan.ParseDate(paid); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		rec.Kind = loan.EventKind(kind)
		rec.Note = note.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeletePaymentEvent(ctx context.Context, loanID, eventID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM payment_events WHERE loan_id = ? AND id = ?`, loanID, eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return loan.ErrEventNotFound
	}
	return nil
}

// =============================================================================
// SCHEDULED PAYMENTS
// =============================================================================

func (s *Store) ReplaceScheduledPayments(ctx context.Context, loanID string, recs []loan.ScheduledPaymentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_payments WHERE loan_id = ?`, loanID); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scheduled_payments (loan_id, due_date, expected_amount)
			VALUES (?, ?, ?)`,
			loanID, rec.DueDate.String(), rec.ExpectedAmount.String(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListScheduledPayments(ctx context.Context, loanID string) ([]loan.ScheduledPaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT loan_id, due_date, expected_amount
		FROM scheduled_payments WHERE loan_id = ? ORDER BY due_date`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loan.ScheduledPaymentRecord
	for rows.Next() {
		var (
			rec           loan.ScheduledPaymentRecord
			due, expected string
		)
		if err := rows.Scan(&rec.LoanID, &due, &expected); err != nil {
			return nil, err
		}
		if rec.DueDate, err = loan.ParseDate(due); err != nil {
			return nil, err
		}
		if rec.ExpectedAmount, err = decimal.NewFromString(expected); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ loan.Store = (*Store)(nil)
