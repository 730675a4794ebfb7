package requestid

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Missing(t *testing.T) {
	a := FromContext(context.Background())
	b := FromContext(context.Background())
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-123")
	assert.Equal(t, "test-123", FromContext(ctx))
}

func TestApply_UsesContextID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, "req-42", Apply(req))
	assert.Equal(t, "req-42", req.Header.Get(Header))
}

func TestApply_KeepsExistingHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)
	req.Header.Set(Header, "preset")

	assert.Equal(t, "preset", Apply(req))
}

func TestApply_Generates(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	id := Apply(req)
	assert.Len(t, id, 36)
	assert.Equal(t, id, req.Header.Get(Header))
}
