package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/apijudge/internal/history"
	mock_history "github.com/at-ishikawa/apijudge/internal/mocks/history"
	"github.com/at-ishikawa/apijudge/internal/report"
)

func TestWriter_Write(t *testing.T) {
	run := report.Run{ID: "run-1", SuiteName: "users"}

	tests := []struct {
		name    string
		saveErr error
		wantErr bool
	}{
		{name: "saves the run"},
		{name: "repository error", saveErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_history.NewMockRepository(ctrl)
			repo.EXPECT().SaveRun(gomock.Any(), run).Return(tt.saveErr)

			var writer report.Writer = history.NewWriter(repo)
			err := writer.Write(context.Background(), run)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "run-1")
				return
			}
			require.NoError(t, err)
		})
	}
}
