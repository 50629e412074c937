package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestClassifiedError(t *testing.T) {
	t.Run("message carries category and cause", func(t *testing.T) {
		err := WrapError(stderrors.New("disk full"), CategoryStorage, "write snapshot").Build()
		assert.Equal(t, "storage: write snapshot: disk full", err.Error())
		assert.Equal(t, "write snapshot", err.Message())
		assert.False(t, err.Fatal())
	})

	t.Run("wrapped chain is searchable", func(t *testing.T) {
		cause := stderrors.New("disk full")
		outer := fmt.Errorf("create profile: %w", WrapError(cause, CategoryStorage, "write snapshot").Build())

		assert.True(t, HasCategory(outer, CategoryStorage))
		assert.False(t, HasCategory(outer, CategoryParse))
		assert.ErrorIs(t, outer, cause)
		assert.False(t, HasCategory(stderrors.New("plain"), CategoryInternal))
	})

	t.Run("WithContext returns a copy", func(t *testing.T) {
		base := NotFoundError("profile").Build()
		named := base.WithContext("profile", "night")

		assert.NotContains(t, base.Context(), "profile")
		assert.Equal(t, "night", named.Context()["profile"])
	})

	t.Run("builder does not share context with built errors", func(t *testing.T) {
		b := ValidationError("bad hour").WithContext("hour", 25)
		first := b.Build()
		b.WithContext("minute", 61)

		assert.NotContains(t, first.Context(), "minute")
	})

	t.Run("fatal constructors", func(t *testing.T) {
		assert.True(t, ConfigError("bad yaml").Build().Fatal())
		assert.True(t, InternalError("boom").Build().Fatal())
		assert.False(t, ExecutionError("acc failed").Build().Fatal())
	})
}

func TestCommandError(t *testing.T) {
	err := CommandError("acc -s temp 400-450_90\nacc -s capacity 5,60,70-80", 3).WithContext("group", "temp").Build()

	assert.True(t, HasCategory(err, CategoryExecution))
	assert.Equal(t, "acc -s temp 400-450_90", err.Context()[KeyCommand])

	code, ok := CommandExitCode(fmt.Errorf("apply: %w", err))
	require.True(t, ok)
	assert.Equal(t, 3, code)

	_, ok = CommandExitCode(ExecutionError("no code").Build())
	assert.False(t, ok)
}

func TestCallerFault(t *testing.T) {
	assert.True(t, CategoryValidation.CallerFault())
	assert.True(t, CategoryNotFound.CallerFault())
	assert.False(t, CategoryExecution.CallerFault())
	assert.False(t, CategoryInternal.CallerFault())
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, discardLogger())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("hour out of range").Build(), expected: 2},
		{name: "not found", err: NotFoundError("profile").Build(), expected: 3},
		{name: "already exists", err: AlreadyExistsError("profile").Build(), expected: 4},
		{name: "parse", err: ParseError("bad capacity").Build(), expected: 6},
		{name: "config", err: ConfigError("bad yaml").Build(), expected: 7},
		{name: "command", err: CommandError("acc -f 95", 1).Build(), expected: 8},
		{name: "runtime", err: RuntimeError("poller stopped").Build(), expected: 12},
		{name: "wrapped", err: fmt.Errorf("load: %w", NotFoundError("config").Build()), expected: 3},
		{name: "unclassified", err: stderrors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, discardLogger())
	verbose := NewCLIErrorAdapter(true, discardLogger())

	assert.Equal(t, "Error: validation: bad hour", quiet.FormatError(ValidationError("bad hour").Build()))
	assert.Equal(t, "Error: execution: command failed (acc -f 95 exited with 1)", quiet.FormatError(CommandError("acc -f 95", 1).Build()))
	assert.Equal(t, "Error: internal error (use -v for details)", quiet.FormatError(InternalError("nil map").Build()))
	assert.Equal(t, "Error: internal: nil map", verbose.FormatError(InternalError("nil map").Build()))
	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var stderr bytes.Buffer
	code := -1
	adapter := NewCLIErrorAdapter(false, discardLogger())
	adapter.stderr = &stderr
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(NotFoundError("profile").WithContext("profile", "night").Build())
	assert.Equal(t, 3, code)
	assert.Equal(t, "Error: not_found: profile not found\n", stderr.String())

	code = -1
	adapter.HandleError(nil)
	assert.Equal(t, -1, code)
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/missing", nil)
	rec := httptest.NewRecorder()
	adapter.WriteErrorResponse(rec, req, NotFoundError("profile").WithContext("profile", "missing").Build())

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(CategoryNotFound), payload.Code)
	assert.Equal(t, "missing", payload.Details["profile"])
}

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(discardLogger())

	assert.Equal(t, http.StatusOK, adapter.StatusCodeFor(nil))
	assert.Equal(t, http.StatusBadRequest, adapter.StatusCodeFor(ValidationError("bad").Build()))
	assert.Equal(t, http.StatusConflict, adapter.StatusCodeFor(AlreadyExistsError("profile").Build()))
	assert.Equal(t, http.StatusUnprocessableEntity, adapter.StatusCodeFor(ParseError("bad capacity").Build()))
	assert.Equal(t, http.StatusBadGateway, adapter.StatusCodeFor(CommandError("acc -D stop", 1).Build()))
	assert.Equal(t, http.StatusServiceUnavailable, adapter.StatusCodeFor(RuntimeError("stopped").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(WrapError(stderrors.New("disk full"), CategoryStorage, "write snapshot").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(stderrors.New("boom")))
}

func TestHTTPErrorAdapter_HidesUnclassifiedDetail(t *testing.T) {
	adapter := NewHTTPErrorAdapter(discardLogger())

	resp := adapter.FormatErrorResponse(stderrors.New("open /data/secret: permission denied"))
	assert.Equal(t, HTTPErrorResponse{Error: "internal error", Code: string(CategoryInternal)}, resp)
}
