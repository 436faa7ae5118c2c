package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Classification is the accounting category of an account
type Classification string

const (
	ClassificationIncome    Classification = "income"
	ClassificationExpense   Classification = "expense"
	ClassificationAsset     Classification = "asset"
	ClassificationLiability Classification = "liability"
	ClassificationEquity    Classification = "equity"
)

// ParseClassification normalizes a classification string
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(strings.ToLower(strings.TrimSpace(s))); c {
	case ClassificationIncome, ClassificationExpense, ClassificationAsset,
		ClassificationLiability, ClassificationEquity:
		return c, nil
	case "revenue":
		return ClassificationIncome, nil
	default:
		return "", fmt.Errorf("unknown account classification %q", s)
	}
}

// Account is a ledger account
type Account struct {
	ID             string         `json:"account_id"`
	Name           string         `json:"account_name"`
	Classification Classification `json:"account_type"`
}

// Entry is a single signed ledger line. Amounts are recorded in the account's
// natural direction: revenue on an income account and spend on an expense
// account are positive, reversals are negative.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   string          `json:"account_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// AccountAggregate is one row per account over a period. TotalDebits is the sum
// of positive entry amounts and TotalCredits the magnitude of negative ones, so
// NetAmount == TotalDebits - TotalCredits.
type AccountAggregate struct {
	AccountID        string          `json:"account_id"`
	AccountName      string          `json:"account_name"`
	Classification   Classification  `json:"account_type"`
	TotalDebits      decimal.Decimal `json:"total_debits"`
	TotalCredits     decimal.Decimal `json:"total_credits"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	TransactionCount int             `json:"transaction_count"`
	MeanAmount       float64         `json:"mean_amount"`
	StdDevAmount     float64         `json:"stddev_amount"`
}

// Net returns the signed net amount as float64 for statistics
func (a AccountAggregate) Net() float64 {
	f, _ := a.NetAmount.Float64()
	return f
}

// PeriodAmount is an account total for one month (YYYY-MM) or one day (YYYY-MM-DD)
type PeriodAmount struct {
	Period      string          `json:"period"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// Float returns the amount as float64
func (p PeriodAmount) Float() float64 {
	f, _ := p.Amount.Float64()
	return f
}

// Reader is the read-only ledger query contract consumed by the analytics engine.
// All ranges are inclusive on both ends. Accounts with no matching entries are
// absent from results. Implementations must order results deterministically.
type Reader interface {
	// SumByAccount returns one aggregate per account with entries in the range
	SumByAccount(ctx context.Context, r DateRange) ([]AccountAggregate, error)

	// SumByAccountMonthly returns monthly totals for an account ordered by period
	SumByAccountMonthly(ctx context.Context, accountID string, r DateRange) ([]PeriodAmount, error)

	// SumByAccountDaily returns daily totals for an account ordered by date
	SumByAccountDaily(ctx context.Context, accountID string, r DateRange) ([]PeriodAmount, error)

	// SumByAccountType returns the signed total across all accounts of the given classifications
	SumByAccountType(ctx context.Context, types []Classification, r DateRange) (decimal.Decimal, error)

	// ListActiveAccounts returns accounts with at least one entry in the range
	ListActiveAccounts(ctx context.Context, r DateRange) ([]Account, error)

	// ListEntries returns the individual entries for an account ordered by date then id
	ListEntries(ctx context.Context, accountID string, r DateRange) ([]Entry, error)
}
