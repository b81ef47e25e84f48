package shared

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	generated := GetTraceID(WithTraceID(ctx, ""))
	assert.Len(t, generated, 32)
	_, err := hex.DecodeString(generated)
	assert.NoError(t, err)

	assert.Equal(t, "abc", GetTraceID(WithTraceID(ctx, "abc")))
	assert.Len(t, GetTraceID(WithTraceID(ctx, strings.Repeat("a", 65))), 32)

	bad := context.WithValue(ctx, TraceIDKey, 123)
	assert.Empty(t, GetTraceID(bad))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
		errLike string
	}{
		{name: "valid", input: `{"title":"Caregiving Basics"}`},
		{name: "malformed", input: `{"title":`, errLike: "unexpected EOF"},
		{name: "empty body", input: "", errLike: "EOF"},
		{name: "trailing value", input: `{"title":"a"}{"title":"b"}`, wantErr: ErrTrailingData},
		{name: "oversized", input: `{"title":"` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`, errLike: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			var got body
			err := DecodeJSON(httptest.NewRecorder(), req, &got)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errLike != "":
				assert.ErrorContains(t, err, tt.errLike)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Caregiving Basics", got.Title)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Published *bool `json:"published" validate:"required"`
	}

	assert.Error(t, ValidateRequest(req{}))
	yes := true
	assert.NoError(t, ValidateRequest(req{Published: &yes}))
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{"server error", http.StatusInternalServerError, nil, "ERROR"},
		{"client error", http.StatusNotFound, nil, "DEBUG"},
		{"elevated client error", http.StatusConflict, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
		{"rate limited", http.StatusTooManyRequests, nil, "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := logger.NewTestLogger()
			ctx := logger.WithLogger(WithTraceID(context.Background(), "trace-1"), log)
			req := httptest.NewRequest(http.MethodGet, "/api/textbooks/x", nil).WithContext(ctx)
			rec := httptest.NewRecorder()

			cause := errors.New("dial postgres://kotoba:s3cret@db:5432/kotoba")
			RespondWithErrorAndLog(rec, req, tt.status, "Something went wrong", cause, tt.opts...)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "Something went wrong", resp.Error)
			assert.Equal(t, "trace-1", resp.TraceID)

			entries := buf.EntriesWithMessage("API error response")
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0]["level"])
			assert.NotContains(t, entries[0]["error"], "s3cret")
		})
	}
}

func TestRespondWithBodyAndLog_CustomBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/textbooks", nil)
	rec := httptest.NewRecorder()

	RespondWithBodyAndLog(rec, req, http.StatusInternalServerError, map[string]any{
		"error":           "generation failed",
		"completed_units": 1,
	}, nil)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "generation failed", resp["error"])
	assert.Equal(t, 1.0, resp["completed_units"])
}
