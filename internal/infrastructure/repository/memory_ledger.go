package repository

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/stats"
)

// MemoryLedger answers ledger queries from an in-process snapshot. It is
// read-only after construction and safe for concurrent use.
type MemoryLedger struct {
	accounts map[string]ledger.Account
	entries  []ledger.Entry
}

// NewMemoryLedger copies accounts and entries into a snapshot. Entries for
// accounts that are not listed get an account with the id as its name and
// the expense classification.
func NewMemoryLedger(accounts []ledger.Account, entries []ledger.Entry) *MemoryLedger {
	m := &MemoryLedger{
		accounts: make(map[string]ledger.Account, len(accounts)),
		entries:  make([]ledger.Entry, len(entries)),
	}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	copy(m.entries, entries)
	for i := range m.entries {
		m.entries[i].Date = ledger.Day(m.entries[i].Date)
		if _, ok := m.accounts[m.entries[i].AccountID]; !ok {
			id := m.entries[i].AccountID
			m.accounts[id] = ledger.Account{ID: id, Name: id, Classification: ledger.ClassificationExpense}
		}
	}
	sort.SliceStable(m.entries, func(i, j int) bool {
		a, b := m.entries[i], m.entries[j]
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID.String() < b.ID.String()
	})
	return m
}

// Accounts returns every known account ordered by id
func (m *MemoryLedger) Accounts() []ledger.Account {
	out := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of entries in the snapshot
func (m *MemoryLedger) Len() int {
	return len(m.entries)
}

func (m *MemoryLedger) inRange(accountID string, r ledger.DateRange) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range m.entries {
		if (accountID == "" || e.AccountID == accountID) && r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryLedger) SumByAccount(ctx context.Context, r ledger.DateRange) ([]ledger.AccountAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []ledger.AccountAggregate
	var amounts []float64
	flush := func() {
		if len(out) == 0 {
			return
		}
		last := &out[len(out)-1]
		last.MeanAmount = stats.Mean(amounts)
		last.StdDevAmount = stats.PopulationStdDev(amounts)
		amounts = amounts[:0]
	}

	// entries are sorted by account so each account is one contiguous run
	for _, e := range m.inRange("", r) {
		if len(out) == 0 || out[len(out)-1].AccountID != e.AccountID {
			flush()
			a := m.accounts[e.AccountID]
			out = append(out, ledger.AccountAggregate{
				AccountID:      a.ID,
				AccountName:    a.Name,
				Classification: a.Classification,
				TotalDebits:    decimal.Zero,
				TotalCredits:   decimal.Zero,
				NetAmount:      decimal.Zero,
			})
		}
		agg := &out[len(out)-1]
		if e.Amount.IsPositive() {
			agg.TotalDebits = agg.TotalDebits.Add(e.Amount)
		} else {
			agg.TotalCredits = agg.TotalCredits.Add(e.Amount.Abs())
		}
		agg.NetAmount = agg.NetAmount.Add(e.Amount)
		agg.TransactionCount++
		f, _ := e.Amount.Float64()
		amounts = append(amounts, f)
	}
	flush()
	return out, nil
}

func (m *MemoryLedger) SumByAccountMonthly(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	return m.sumByPeriod(ctx, accountID, r, ledger.MonthLayout)
}

func (m *MemoryLedger) SumByAccountDaily(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	return m.sumByPeriod(ctx, accountID, r, ledger.DateLayout)
}

func (m *MemoryLedger) sumByPeriod(ctx context.Context, accountID string, r ledger.DateRange, layout string) ([]ledger.PeriodAmount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := m.accounts[accountID].Name

	var out []ledger.PeriodAmount
	for _, e := range m.inRange(accountID, r) {
		period := e.Date.Format(layout)
		if len(out) == 0 || out[len(out)-1].Period != period {
			out = append(out, ledger.PeriodAmount{Period: period, AccountName: name, Amount: decimal.Zero})
		}
		out[len(out)-1].Amount = out[len(out)-1].Amount.Add(e.Amount)
	}
	return out, nil
}

func (m *MemoryLedger) SumByAccountType(ctx context.Context, types []ledger.Classification, r ledger.DateRange) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	wanted := make(map[ledger.Classification]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	total := decimal.Zero
	for _, e := range m.inRange("", r) {
		if wanted[m.accounts[e.AccountID].Classification] {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (m *MemoryLedger) ListActiveAccounts(ctx context.Context, r ledger.DateRange) ([]ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ledger.Account
	for _, e := range m.inRange("", r) {
		if len(out) == 0 || out[len(out)-1].ID != e.AccountID {
			out = append(out, m.accounts[e.AccountID])
		}
	}
	return out, nil
}

func (m *MemoryLedger) ListEntries(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.inRange(accountID, r), nil
}
