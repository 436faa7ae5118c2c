package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// LedgerBuilder builds accounts and entries for tests. Entry ids are derived
// from insertion order so two builders fed the same calls produce identical
// ledgers. Malformed dates or amounts panic.
type LedgerBuilder struct {
	accounts []ledger.Account
	entries  []ledger.Entry
}

func NewLedgerBuilder() *LedgerBuilder {
	return &LedgerBuilder{}
}

// Account registers an account
func (b *LedgerBuilder) Account(id, name string, class ledger.Classification) *LedgerBuilder {
	b.accounts = append(b.accounts, ledger.Account{ID: id, Name: name, Classification: class})
	return b
}

// Entry adds one entry. date is YYYY-MM-DD.
func (b *LedgerBuilder) Entry(accountID, date, amount string) *LedgerBuilder {
	d, err := time.Parse(ledger.DateLayout, date)
	if err != nil {
		panic(fmt.Sprintf("fixtures: bad date %q: %v", date, err))
	}
	return b.add(accountID, d, decimal.RequireFromString(amount))
}

// Monthly adds one entry on the 15th of each month starting at firstMonth (YYYY-MM)
func (b *LedgerBuilder) Monthly(accountID, firstMonth string, amounts ...float64) *LedgerBuilder {
	start, err := time.Parse(ledger.MonthLayout, firstMonth)
	if err != nil {
		panic(fmt.Sprintf("fixtures: bad month %q: %v", firstMonth, err))
	}
	for i, a := range amounts {
		b.add(accountID, start.AddDate(0, i, 14), decimal.NewFromFloat(a))
	}
	return b
}

// Daily adds one entry per consecutive day starting at firstDay (YYYY-MM-DD)
func (b *LedgerBuilder) Daily(accountID, firstDay string, amounts ...float64) *LedgerBuilder {
	start, err := time.Parse(ledger.DateLayout, firstDay)
	if err != nil {
		panic(fmt.Sprintf("fixtures: bad date %q: %v", firstDay, err))
	}
	for i, a := range amounts {
		b.add(accountID, start.AddDate(0, 0, i), decimal.NewFromFloat(a))
	}
	return b
}

func (b *LedgerBuilder) add(accountID string, date time.Time, amount decimal.Decimal) *LedgerBuilder {
	n := len(b.entries)
	b.entries = append(b.entries, ledger.Entry{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("entry-%d", n))),
		AccountID:   accountID,
		Date:        date,
		Amount:      amount,
		Description: fmt.Sprintf("test entry %d", n),
	})
	return b
}

// Build returns copies of the accounts and entries, ready for
// repository.NewMemoryLedger or a database seed.
func (b *LedgerBuilder) Build() ([]ledger.Account, []ledger.Entry) {
	accounts := make([]ledger.Account, len(b.accounts))
	copy(accounts, b.accounts)
	entries := make([]ledger.Entry, len(b.entries))
	copy(entries, b.entries)
	return accounts, entries
}
