package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
)

var requiredColumns = []string{"account_id", "account_name", "classification", "date", "amount"}

// LoadCSVFile reads a ledger export from disk. See LoadCSV for the format.
func LoadCSVFile(path string) (*MemoryLedger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open ledger csv")
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV builds a MemoryLedger from a CSV export with a header row. Required
// columns are account_id, account_name, classification, date (YYYY-MM-DD) and
// amount; entry_id and description are optional. Rows without an entry_id get
// one derived from the line number, so reloading a file yields the same ids.
func LoadCSV(r io.Reader) (*MemoryLedger, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewValidationError("INVALID_CSV", "ledger csv has no header row").WithCause(err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, errors.NewValidationError("INVALID_CSV", fmt.Sprintf("ledger csv is missing column %q", c))
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	accounts := make(map[string]ledger.Account)
	var order []string
	var entries []ledger.Entry
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, rowError(line, err.Error()).WithCause(err)
		}

		class, err := ledger.ParseClassification(field(rec, "classification"))
		if err != nil {
			return nil, rowError(line, err.Error()).WithCause(err)
		}
		date, err := time.Parse(ledger.DateLayout, field(rec, "date"))
		if err != nil {
			return nil, rowError(line, "invalid date").WithCause(err)
		}
		amount, err := decimal.NewFromString(field(rec, "amount"))
		if err != nil {
			return nil, rowError(line, "invalid amount").WithCause(err)
		}
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("ledger-csv-line-%d", line)))
		if raw := field(rec, "entry_id"); raw != "" {
			if id, err = uuid.Parse(raw); err != nil {
				return nil, rowError(line, "invalid entry_id").WithCause(err)
			}
		}

		accountID := field(rec, "account_id")
		if accountID == "" {
			return nil, rowError(line, "empty account_id")
		}
		if _, ok := accounts[accountID]; !ok {
			order = append(order, accountID)
			accounts[accountID] = ledger.Account{
				ID:             accountID,
				Name:           field(rec, "account_name"),
				Classification: class,
			}
		}

		entries = append(entries, ledger.Entry{
			ID:          id,
			AccountID:   accountID,
			Date:        date,
			Amount:      amount,
			Description: field(rec, "description"),
		})
	}

	list := make([]ledger.Account, 0, len(order))
	for _, id := range order {
		list = append(list, accounts[id])
	}
	return NewMemoryLedger(list, entries), nil
}

func rowError(line int, msg string) *errors.AppError {
	return errors.NewValidationError("INVALID_CSV", fmt.Sprintf("ledger csv line %d: %s", line, msg))
}
