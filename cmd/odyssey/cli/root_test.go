package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"setup"},
		{"jobs", "trigger"},
		{"jobs", "stats"},
		{"jobs", "archived"},
		{"integrity"},
		{"export", "journal"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		require.Empty(t, rest)
		require.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestCommandsRejectBadFlagsBeforeConnecting(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"setup without tenant", []string{"setup"}, "--tenant is required"},
		{"setup with bad tenant", []string{"setup", "--tenant", "acme"}, "--tenant must be a uuid"},
		{"nil tenant", []string{"setup", "--tenant", uuid.Nil.String()}, "--tenant must be a uuid"},
		{"down without steps", []string{"migrate", "down", "--steps", "0"}, "--steps must be positive"},
		{"trigger bad tenant", []string{"jobs", "trigger", "integrity", "--tenant", "x"}, "--tenant must be a uuid"},
		{"integrity bad tenant", []string{"integrity", "--tenant", "x"}, "--tenant must be a uuid"},
		{"export bad from", []string{"export", "journal", "--tenant", uuid.NewString(), "--from", "14/03/2025", "--to", "2025-03-31"}, "--from"},
		{"export inverted range", []string{"export", "journal", "--tenant", uuid.NewString(), "--from", "2025-03-31", "--to", "2025-03-01"}, "--to must not be before --from"},
		{"export empty out", []string{"export", "journal", "--tenant", uuid.NewString(), "--from", "2025-03-01", "--to", "2025-03-31", "--out", ""}, "--out is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runRoot(t, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTriggerRequiresJobName(t *testing.T) {
	_, err := runRoot(t, "jobs", "trigger")
	require.Error(t, err)
}

func TestIntegritySummary(t *testing.T) {
	tenant := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	found := []jobs.Imbalance{
		{TenantID: tenant, EntryID: uuid.New(), EntryNumber: "AC-00002", TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.NewFromInt(100), LineDebit: decimal.NewFromInt(90), LineCredit: decimal.NewFromInt(100)},
		{TenantID: tenant, EntryID: uuid.New(), EntryNumber: "AC-00001", TotalDebit: decimal.NewFromInt(5), TotalCredit: decimal.NewFromInt(4), LineDebit: decimal.NewFromInt(5), LineCredit: decimal.NewFromInt(4)},
	}

	summary := buildIntegritySummary(found)
	require.False(t, summary.OK)
	require.Len(t, summary.Findings, 2)
	require.Equal(t, "AC-00001", summary.Findings[0].EntryNumber)
	require.Equal(t, "90.00", summary.Findings[1].LineDebit)

	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"entry_number":"AC-00002"`)

	require.True(t, buildIntegritySummary(nil).OK)

	var out bytes.Buffer
	renderIntegrityHuman(&out, nil)
	require.Equal(t, "ledger consistent\n", out.String())

	out.Reset()
	renderIntegrityHuman(&out, found)
	require.Contains(t, out.String(), "2 entry(ies) out of balance")
	require.Contains(t, out.String(), "AC-00002 debit 100.00/90.00 credit 100.00/100.00")
}
