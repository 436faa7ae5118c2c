package containers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/migrations"
)

// PostgresContainer is a throwaway PostgreSQL with the ledger schema applied
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnectionString string
}

// NewPostgresContainer starts PostgreSQL and runs the embedded migrations
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ledger_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := migrations.Up(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	return &PostgresContainer{
		PostgresContainer: pgContainer,
		ConnectionString:  connStr,
	}, nil
}

// Pool opens a pgx pool against the container
func (p *PostgresContainer) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, p.ConnectionString)
}

// Seed inserts accounts and entries in one batch
func Seed(ctx context.Context, pool *pgxpool.Pool, accounts []ledger.Account, entries []ledger.Entry) error {
	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(`INSERT INTO accounts (id, name, classification) VALUES ($1, $2, $3)`,
			a.ID, a.Name, string(a.Classification))
	}
	for _, e := range entries {
		batch.Queue(`INSERT INTO ledger_entries (id, account_id, entry_date, amount, description) VALUES ($1, $2, $3, $4::numeric, $5)`,
			e.ID, e.AccountID, e.Date, e.Amount.String(), e.Description)
	}
	return pool.SendBatch(ctx, batch).Close()
}

// Truncate empties the ledger tables between tests
func Truncate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE ledger_entries, accounts`)
	return err
}
