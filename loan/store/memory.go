// Package store provides loan.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	loans     map[string]loan.LoanRecord
	rates     map[string][]loan.RatePeriodRecord
	events    map[string][]loan.PaymentEventRecord
	scheduled map[string][]loan.ScheduledPaymentRecord
}

func NewMemory() *Memory {
	return &Memory{
		loans:     make(map[string]loan.LoanRecord),
		rates:     make(map[string][]loan.RatePeriodRecord),
		events:    make(map[string][]loan.PaymentEventRecord),
		scheduled: make(map[string][]loan.ScheduledPaymentRecord),
	}
}

// -----------------------------------------------------------------------------
// Loans
// -----------------------------------------------------------------------------

func (m *Memory) SaveLoan(_ context.Context, rec loan.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[rec.ID] = rec
	return nil
}

func (m *Memory) GetLoan(_ context.Context, id string) (*loan.LoanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.loans[id]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	cp := rec
	return &cp, nil
}

func (m *Memory) ListLoans(_ context.Context) ([]loan.LoanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]loan.LoanRecord, 0, len(m.loans))
	for _, rec := range m.loans {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteLoan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[id]; !ok {
		return loan.ErrLoanNotFound
	}
	delete(m.loans, id)
	delete(m.rates, id)
	delete(m.events, id)
	delete(m.scheduled, id)
	return nil
}

// -----------------------------------------------------------------------------
// Rate periods
// -----------------------------------------------------------------------------

func (m *Memory) UpsertRatePeriod(_ context.Context, rec loan.RatePeriodRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.rates[rec.LoanID]
	for i, r := range rows {
		if r.EffectiveDate.Equal(rec.EffectiveDate) {
			rows[i] = rec
			return nil
		}
	}

	// Sorted insert keeps list methods allocation-free of extra sorts.
	i := sort.Search(len(rows), func(i int) bool {
		return rows[i].EffectiveDate.After(rec.EffectiveDate)
	})
	rows = append(rows, loan.RatePeriodRecord{})
	copy(rows[i+1:], rows[i:])
	rows[i] = rec
	m.rates[rec.LoanID] = rows
	return nil
}

func (m *Memory) ListRatePeriods(_ context.Context, loanID string) ([]loan.RatePeriodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]loan.RatePeriodRecord, len(m.rates[loanID]))
	copy(out, m.rates[loanID])
	return out, nil
}

// -----------------------------------------------------------------------------
// Payment events
// -----------------------------------------------------------------------------

func (m *Memory) AppendPaymentEvent(_ context.Context, rec loan.PaymentEventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.events[rec.LoanID]
	i := sort.Search(len(rows), func(i int) bool {
		return rows[i].Date.After(rec.Date)
	})
	rows = append(rows, loan.PaymentEventRecord{})
	copy(rows[i+1:], rows[i:])
	rows[i] = rec
	m.events[rec.LoanID] = rows
	return nil
}

func (m *Memory) ListPaymentEvents(_ context.Context, loanID string) ([]loan.PaymentEventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]loan.PaymentEventRecord, len(m.events[loanID]))
	copy(out, m.events[loanID])
	return out, nil
}

func (m *Memory) DeletePaymentEvent(_ context.Context, loanID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.events[loanID]
	for i, r := range rows {
		if r.ID == eventID {
			m.events[loanID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return loan.ErrEventNotFound
}

// -----------------------------------------------------------------------------
// Scheduled payments
// -----------------------------------------------------------------------------

func (m *Memory) ReplaceScheduledPayments(_ context.Context, loanID string, rows []loan.ScheduledPaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]loan.ScheduledPaymentRecord, len(rows))
	copy(cp, rows)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].DueDate.Before(cp[j].DueDate) })
	m.scheduled[loanID] = cp
	return nil
}

func (m *Memory) ListScheduledPayments(_ context.Context, loanID string) ([]loan.ScheduledPaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]loan.ScheduledPaymentRecord, len(m.scheduled[loanID]))
	copy(out, m.scheduled[loanID])
	return out, nil
}

var _ loan.Store = (*Memory)(nil)
