package inference

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		statusCode      int
		wantAuth        bool
		wantUnavailable bool
	}{
		{statusCode: 401, wantAuth: true},
		{statusCode: 403, wantAuth: true},
		{statusCode: 408, wantUnavailable: true},
		{statusCode: 429, wantUnavailable: true},
		{statusCode: 500, wantUnavailable: true},
		{statusCode: 503, wantUnavailable: true},
		{statusCode: 400},
		{statusCode: 404},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.statusCode), func(t *testing.T) {
			err := ClassifyStatus("openai", tt.statusCode, `{"error":"x"}`)
			assert.Error(t, err)
			assert.Equal(t, tt.wantAuth, IsAuthentication(err))
			assert.Equal(t, tt.wantUnavailable, IsServiceUnavailable(err))
			assert.False(t, IsMalformedResponse(err))
			assert.Contains(t, err.Error(), fmt.Sprintf("response error %d", tt.statusCode))
		})
	}
}

func TestErrorsAreDistinguishableWhenWrapped(t *testing.T) {
	auth := fmt.Errorf("validate > %w", &AuthenticationError{Backend: "openai", Err: ErrMissingCredential})
	assert.True(t, IsAuthentication(auth))
	assert.True(t, errors.Is(auth, ErrMissingCredential))
	assert.False(t, IsServiceUnavailable(auth))

	malformed := fmt.Errorf("validate > %w", &MalformedResponseError{Raw: "oops", Err: errors.New("bad")})
	var target *MalformedResponseError
	assert.ErrorAs(t, malformed, &target)
	assert.Equal(t, "oops", target.Raw)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "short", input: "abc", limit: 5, want: "abc"},
		{name: "ascii", input: "abcdef", limit: 3, want: "abc..."},
		{name: "inside a multi-byte rune", input: "aé€", limit: 4, want: "aé..."},
		{name: "inside the first rune", input: "€uro", limit: 2, want: "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.limit))
		})
	}
}

func TestMalformedResponseError_KeepsUTF8(t *testing.T) {
	raw := strings.Repeat("é", 150)
	err := &MalformedResponseError{Raw: raw, Err: errors.New("no JSON object found")}
	assert.True(t, utf8.ValidString(err.Error()))

	classified := ClassifyStatus("openai", 400, strings.Repeat("日本", 200))
	assert.True(t, utf8.ValidString(classified.Error()))
}
