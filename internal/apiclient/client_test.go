package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
)

func TestClient_Do(t *testing.T) {
	payload, err := jsonvalue.Parse([]byte(`{"title":"AI Test","userId":1}`))
	require.NoError(t, err)

	tests := []struct {
		name           string
		request        Request
		handler        http.HandlerFunc
		wantStatus     int
		wantKind       jsonvalue.Kind
		wantErrContain string
	}{
		{
			name:    "get json object",
			request: Request{Method: "get", Endpoint: "/users/1"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/users/1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":1,"name":"Leanne Graham"}`))
			},
			wantStatus: http.StatusOK,
			wantKind:   jsonvalue.KindObject,
		},
		{
			name: "post with payload and headers",
			request: Request{
				Method:   http.MethodPost,
				Endpoint: "/posts",
				Headers:  map[string]string{"Authorization": "Bearer token"},
				Payload:  payload,
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"title":"AI Test","userId":1}`, string(body))
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id":101}`))
			},
			wantStatus: http.StatusCreated,
			wantKind:   jsonvalue.KindObject,
		},
		{
			name:    "non json body",
			request: Request{Method: http.MethodGet, Endpoint: "/health"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			},
			wantStatus: http.StatusOK,
			wantKind:   jsonvalue.KindInvalid,
		},
		{
			name:    "error status is not an error",
			request: Request{Endpoint: "/users/999"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{}`))
			},
			wantStatus: http.StatusNotFound,
			wantKind:   jsonvalue.KindObject,
		},
		{
			name:           "unsupported method",
			request:        Request{Method: "TRACE", Endpoint: "/"},
			handler:        func(w http.ResponseWriter, r *http.Request) {},
			wantErrContain: "unsupported method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := New(server.URL+"/", time.Second)
			got, err := client.Do(context.Background(), tt.request)
			if tt.wantErrContain != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantKind, got.JSON.Kind())
			assert.NotEmpty(t, got.Body)
		})
	}
}

func TestClient_Do_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := New(server.URL, 50*time.Millisecond)
	_, err := client.Do(context.Background(), Request{Endpoint: "/slow"})
	require.Error(t, err)
}
