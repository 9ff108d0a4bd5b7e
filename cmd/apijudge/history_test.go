package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/apijudge/internal/history"
)

func TestNewHistoryCommand(t *testing.T) {
	cmd := newHistoryCommand()

	assert.Equal(t, "history [run-id]", cmd.Use)
	limitFlag := cmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
}

func TestPrintRuns(t *testing.T) {
	tests := []struct {
		name string
		runs []history.RunRecord
		want []string
	}{
		{
			name: "no runs",
			want: []string{"No runs stored yet."},
		},
		{
			name: "runs",
			runs: []history.RunRecord{
				{
					ID:        "0b6f1c2e-9d4a-4f7e-8a31-2c5d7e9f1a00",
					SuiteName: "users",
					Backend:   "openai",
					StartedAt: time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
					Total:     3,
					Passed:    2,
					Failed:    1,
				},
			},
			want: []string{"ID", "SUITE", "0b6f1c2e-9d4a-4f7e-8a31-2c5d7e9f1a00", "users", "openai", "2026-10-01 09:30:00", "2/3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, printRuns(&out, tt.runs))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
