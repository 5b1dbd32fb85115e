package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		http int
		grpc codes.Code
	}{
		{
			name: "unsupported media type",
			err:  NewAppError(CodeUnsupportedMediaType, "text/plain", ErrUnsupportedMediaType),
			code: CodeUnsupportedMediaType, http: http.StatusUnsupportedMediaType, grpc: codes.InvalidArgument,
		},
		{
			name: "oversize",
			err:  NewAppError(CodeOversizeDocument, "too big", ErrOversizeDocument),
			code: CodeOversizeDocument, http: http.StatusRequestEntityTooLarge, grpc: codes.InvalidArgument,
		},
		{
			name: "missing credential",
			err:  NewAppError(CodeMissingCredential, "no key", ErrMissingCredential),
			code: CodeMissingCredential, http: http.StatusPreconditionFailed, grpc: codes.FailedPrecondition,
		},
		{
			name: "no text",
			err:  fmt.Errorf("run: %w", NewAppError(CodeNoTextExtracted, "empty", ErrNoTextExtracted)),
			code: CodeNoTextExtracted, http: http.StatusUnprocessableEntity, grpc: codes.FailedPrecondition,
		},
		{
			name: "analysis failed",
			err:  NewAppError(CodeAnalysisFailed, "bad json", ErrAnalysisFailed),
			code: CodeAnalysisFailed, http: http.StatusBadGateway, grpc: codes.Internal,
		},
		{
			name: "not found sentinel only",
			err:  fmt.Errorf("report: %w", ErrNotFound),
			code: CodeNotFound, http: http.StatusNotFound, grpc: codes.NotFound,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			code: "", http: http.StatusInternalServerError, grpc: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
			assert.Equal(t, tt.http, HTTPStatus(tt.err))
			assert.Equal(t, tt.grpc, status.Code(ToStatus(tt.err)))
		})
	}
}

func TestToStatusKeepsExistingStatus(t *testing.T) {
	err := InvalidArgumentErrorf("bad %s", "field")
	assert.Same(t, err, ToStatus(err))
	assert.Nil(t, ToStatus(nil))
}

func TestAppErrorUnwraps(t *testing.T) {
	err := NewAppError(CodeProviderUnavailable, "vendor/a", errors.Join(ErrProviderUnavailable, errors.New("503")))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "PROVIDER_UNAVAILABLE: vendor/a")
}
