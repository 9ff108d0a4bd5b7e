// Package testutil provides shared test helpers for config files, suites and fake backends.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a config file using the stub backend, with JSON
// reports written under tmpDir/reports.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()
	t.Setenv("APIJUDGE_BACKEND", "")

	reportsDir := filepath.Join(tmpDir, "reports")
	require.NoError(t, os.MkdirAll(reportsDir, 0755))

	configContent := fmt.Sprintf(`backend: stub
timeout: 5s
retry:
  attempts: 1
reports:
  directory: %s
  formats:
    - json
`, reportsDir)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file for the openai backend with a
// fake API key, pointed at baseURL.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir string, baseURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)
	t.Setenv("OPENAI_API_KEY", "fake-key-for-testing")
	t.Setenv("OPENAI_BASE_URL", baseURL)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte(fmt.Sprintf("openai:\n  api_key: fake-key-for-testing\n  model: gpt-4o-mini\n  base_url: %s\n", baseURL))...)
	content = append([]byte("backend: openai\n"), content[len("backend: stub\n"):]...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}

// WriteSuite writes a suite file into dir and returns its path.
func WriteSuite(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "suite.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// NewFakeOpenAIServer serves chat completions whose message content is verdict.
func NewFakeOpenAIServer(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer fake-key-for-testing" {
			http.Error(w, `{"error":{"message":"unexpected request"}}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": verdict},
				},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}
