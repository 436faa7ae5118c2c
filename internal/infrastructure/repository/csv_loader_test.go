package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/domain/ledger"
	"github.com/davidleathers/ledger-insights/internal/testutil"
)

const sampleCSV = `entry_id,account_id,account_name,classification,date,amount,description
6ba7b810-9dad-11d1-80b4-00c04fd430c8,4000,Sales,Revenue,2024-01-05,1200.50,Invoice 1
,4000,Sales,income,2024-01-20,800,
,5000,Rent,expense,2024-01-01,500,January rent
`

func TestLoadCSV(t *testing.T) {
	l, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())

	accounts := l.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, ledger.Account{ID: "4000", Name: "Sales", Classification: ledger.ClassificationIncome}, accounts[0])

	entries, err := l.ListEntries(context.Background(), "4000", testutil.Range(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", entries[0].ID.String())
	assert.Equal(t, "1200.5", entries[0].Amount.String())
	assert.Equal(t, "Invoice 1", entries[0].Description)
}

func TestLoadCSV_Errors(t *testing.T) {
	header := "account_id,account_name,classification,date,amount\n"
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "no header row"},
		{"missing column", "account_id,account_name,date,amount\n", `missing column "classification"`},
		{"bad classification", header + "1,Cash,stuff,2024-01-01,1\n", "line 2"},
		{"bad date", header + "1,Cash,asset,01/02/2024,1\n", "invalid date"},
		{"bad amount", header + "1,Cash,asset,2024-01-01,ten\n", "invalid amount"},
		{"empty account", header + ",Cash,asset,2024-01-01,1\n", "empty account_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	l, err := LoadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadCSV_GeneratedIDsAreStable(t *testing.T) {
	r := testutil.Range(t, "2024-01-01", "2024-01-31")
	load := func() []ledger.Entry {
		l, err := LoadCSV(strings.NewReader(sampleCSV))
		require.NoError(t, err)
		entries, err := l.ListEntries(context.Background(), "5000", r)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		return entries
	}

	assert.Equal(t, load()[0].ID, load()[0].ID)
}
