package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/testutil"
	"github.com/davidleathers/ledger-insights/internal/testutil/containers"
	"github.com/davidleathers/ledger-insights/internal/testutil/fixtures"
)

// The Postgres ledger must agree with the in-memory ledger on the same data
func TestPostgresLedger_MatchesMemoryLedger(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()

	pg, err := containers.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	pool, err := pg.Pool(ctx)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	b := fixtures.NewLedgerBuilder().
		Account("4000", "Sales", ledger.ClassificationIncome).
		Account("5000", "Rent", ledger.ClassificationExpense).
		Account("2000", "Payables", ledger.ClassificationLiability)
	b.Monthly("4000", "2024-01", 1000, 1100.25, 1200, 1300)
	b.Monthly("5000", "2024-01", 400, 400, 400, 400)
	b.Entry("4000", "2024-02-20", "-50.10")
	b.Entry("2000", "2024-03-01", "750")
	accounts, entries := b.Build()
	require.NoError(t, containers.Seed(ctx, pool, accounts, entries))

	pgLedger := NewPostgresLedger(pool)
	mem := NewMemoryLedger(accounts, entries)
	r := testutil.Range(t, "2024-01-01", "2024-03-31")

	t.Run("sum by account", func(t *testing.T) {
		want, err := mem.SumByAccount(ctx, r)
		require.NoError(t, err)
		got, err := pgLedger.SumByAccount(ctx, r)
		require.NoError(t, err)

		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].AccountID, got[i].AccountID)
			assert.Equal(t, want[i].Classification, got[i].Classification)
			assert.True(t, want[i].NetAmount.Equal(got[i].NetAmount), "net for %s", want[i].AccountID)
			assert.True(t, want[i].TotalDebits.Equal(got[i].TotalDebits))
			assert.True(t, want[i].TotalCredits.Equal(got[i].TotalCredits))
			assert.Equal(t, want[i].TransactionCount, got[i].TransactionCount)
			assert.InDelta(t, want[i].MeanAmount, got[i].MeanAmount, 0.001)
			assert.InDelta(t, want[i].StdDevAmount, got[i].StdDevAmount, 0.001)
		}
	})

	t.Run("monthly and daily", func(t *testing.T) {
		want, err := mem.SumByAccountMonthly(ctx, "4000", r)
		require.NoError(t, err)
		got, err := pgLedger.SumByAccountMonthly(ctx, "4000", r)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Period, got[i].Period)
			assert.True(t, want[i].Amount.Equal(got[i].Amount))
		}

		daily, err := pgLedger.SumByAccountDaily(ctx, "4000", r)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", daily[0].Period)
		assert.Equal(t, "Sales", daily[0].AccountName)
	})

	t.Run("sum by account type", func(t *testing.T) {
		got, err := pgLedger.SumByAccountType(ctx, []ledger.Classification{ledger.ClassificationIncome}, r)
		require.NoError(t, err)
		assert.Equal(t, "3250.15", got.String())

		zero, err := pgLedger.SumByAccountType(ctx, []ledger.Classification{ledger.ClassificationEquity}, r)
		require.NoError(t, err)
		assert.True(t, zero.IsZero())
	})

	t.Run("active accounts and entries", func(t *testing.T) {
		active, err := pgLedger.ListActiveAccounts(ctx, testutil.Range(t, "2024-03-01", "2024-03-31"))
		require.NoError(t, err)
		require.Len(t, active, 3)
		assert.Equal(t, "2000", active[0].ID)

		got, err := pgLedger.ListEntries(ctx, "4000", r)
		require.NoError(t, err)
		want, err := mem.ListEntries(ctx, "4000", r)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		assert.True(t, want[0].Date.Equal(got[0].Date))
	})

	t.Run("query failure is data unavailable", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := pgLedger.SumByAccount(cctx, r)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDataUnavailable))
	})
}
