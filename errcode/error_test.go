package errcode

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayeredError_Code(t *testing.T) {
	e := New(21, 1, "admission", "rate limit exceeded", http.StatusTooManyRequests)

	assert.Equal(t, 210001, e.Code())
	assert.Equal(t, "admission", e.Module())
	assert.Equal(t, http.StatusTooManyRequests, e.HTTPStatus())
}

func TestLayeredError_WithData(t *testing.T) {
	e := ErrRateLimitExceeded.WithData("tenant_id", "t1")

	assert.Equal(t, "t1", e.Data()["tenant_id"])
	// original untouched
	assert.Empty(t, ErrRateLimitExceeded.Data())
}

func TestLayeredError_WithCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := ErrSnapshotFailed.WithCause(cause)

	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "connection refused")
}

func TestLayeredError_WithMsgf(t *testing.T) {
	e := ErrUnknownEndpointClass.WithMsgf("unknown endpoint class %q", "ftp")
	assert.Equal(t, `unknown endpoint class "ftp"`, e.Message())
	assert.Equal(t, ErrUnknownEndpointClass.Code(), e.Code())
}
