package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

// Querier is the subset of *pgxpool.Pool the ledger needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLedger reads aggregates from the accounts and ledger_entries tables.
// Amounts are numeric in the database and are read as text to keep full
// precision in decimal.Decimal.
type PostgresLedger struct {
	db Querier
}

// NewPostgresLedger creates a ledger over a pool or any compatible querier
func NewPostgresLedger(db Querier) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) SumByAccount(ctx context.Context, r ledger.DateRange) ([]ledger.AccountAggregate, error) {
	query := `
		SELECT a.id, a.name, a.classification,
			COALESCE(SUM(e.amount) FILTER (WHERE e.amount > 0), 0)::text,
			COALESCE(-SUM(e.amount) FILTER (WHERE e.amount < 0), 0)::text,
			SUM(e.amount)::text,
			COUNT(*),
			AVG(e.amount)::float8,
			COALESCE(STDDEV_POP(e.amount), 0)::float8
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		WHERE e.entry_date BETWEEN $1 AND $2
		GROUP BY a.id, a.name, a.classification
		ORDER BY a.id`

	rows, err := l.db.Query(ctx, query, r.Start, r.End)
	if err != nil {
		return nil, queryError("sum_by_account", err)
	}
	defer rows.Close()

	var out []ledger.AccountAggregate
	for rows.Next() {
		var agg ledger.AccountAggregate
		var class, debits, credits, net string
		if err := rows.Scan(&agg.AccountID, &agg.AccountName, &class,
			&debits, &credits, &net,
			&agg.TransactionCount, &agg.MeanAmount, &agg.StdDevAmount); err != nil {
			return nil, queryError("sum_by_account", err)
		}
		if agg.Classification, err = ledger.ParseClassification(class); err != nil {
			return nil, queryError("sum_by_account", err)
		}
		if agg.TotalDebits, err = decimal.NewFromString(debits); err != nil {
			return nil, queryError("sum_by_account", err)
		}
		if agg.TotalCredits, err = decimal.NewFromString(credits); err != nil {
			return nil, queryError("sum_by_account", err)
		}
		if agg.NetAmount, err = decimal.NewFromString(net); err != nil {
			return nil, queryError("sum_by_account", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("sum_by_account", err)
	}
	return out, nil
}

func (l *PostgresLedger) SumByAccountMonthly(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	return l.sumByPeriod(ctx, "sum_by_account_monthly", `to_char(date_trunc('month', e.entry_date), 'YYYY-MM')`, accountID, r)
}

func (l *PostgresLedger) SumByAccountDaily(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	return l.sumByPeriod(ctx, "sum_by_account_daily", `to_char(e.entry_date, 'YYYY-MM-DD')`, accountID, r)
}

// bucket is one of the fixed expressions above, never caller input
func (l *PostgresLedger) sumByPeriod(ctx context.Context, name, bucket, accountID string, r ledger.DateRange) ([]ledger.PeriodAmount, error) {
	query := fmt.Sprintf(`
		SELECT %s AS period, a.name, SUM(e.amount)::text
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		WHERE e.account_id = $1 AND e.entry_date BETWEEN $2 AND $3
		GROUP BY period, a.name
		ORDER BY period`, bucket)

	rows, err := l.db.Query(ctx, query, accountID, r.Start, r.End)
	if err != nil {
		return nil, queryError(name, err)
	}
	defer rows.Close()

	var out []ledger.PeriodAmount
	for rows.Next() {
		var p ledger.PeriodAmount
		var amount string
		if err := rows.Scan(&p.Period, &p.AccountName, &amount); err != nil {
			return nil, queryError(name, err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, queryError(name, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(name, err)
	}
	return out, nil
}

func (l *PostgresLedger) SumByAccountType(ctx context.Context, types []ledger.Classification, r ledger.DateRange) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(e.amount), 0)::text
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		WHERE a.classification = ANY($1) AND e.entry_date BETWEEN $2 AND $3`

	classes := make([]string, len(types))
	for i, t := range types {
		classes[i] = string(t)
	}

	var total string
	if err := l.db.QueryRow(ctx, query, classes, r.Start, r.End).Scan(&total); err != nil {
		return decimal.Zero, queryError("sum_by_account_type", err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, queryError("sum_by_account_type", err)
	}
	return d, nil
}

func (l *PostgresLedger) ListActiveAccounts(ctx context.Context, r ledger.DateRange) ([]ledger.Account, error) {
	query := `
		SELECT a.id, a.name, a.classification
		FROM accounts a
		WHERE EXISTS (
			SELECT 1 FROM ledger_entries e
			WHERE e.account_id = a.id AND e.entry_date BETWEEN $1 AND $2
		)
		ORDER BY a.id`

	rows, err := l.db.Query(ctx, query, r.Start, r.End)
	if err != nil {
		return nil, queryError("list_active_accounts", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var class string
		if err := rows.Scan(&a.ID, &a.Name, &class); err != nil {
			return nil, queryError("list_active_accounts", err)
		}
		if a.Classification, err = ledger.ParseClassification(class); err != nil {
			return nil, queryError("list_active_accounts", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list_active_accounts", err)
	}
	return out, nil
}

func (l *PostgresLedger) ListEntries(ctx context.Context, accountID string, r ledger.DateRange) ([]ledger.Entry, error) {
	query := `
		SELECT id, account_id, entry_date, amount::text, COALESCE(description, '')
		FROM ledger_entries
		WHERE account_id = $1 AND entry_date BETWEEN $2 AND $3
		ORDER BY entry_date, id`

	rows, err := l.db.Query(ctx, query, accountID, r.Start, r.End)
	if err != nil {
		return nil, queryError("list_entries", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var amount string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Date, &amount, &e.Description); err != nil {
			return nil, queryError("list_entries", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, queryError("list_entries", err)
		}
		e.Date = ledger.Day(e.Date)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list_entries", err)
	}
	return out, nil
}
