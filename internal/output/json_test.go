package output

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuccessEnvelope(t *testing.T) {
	resp := Success(map[string]string{"k": "v"})
	require.True(t, resp.Success)
	require.Equal(t, "v1", resp.SchemaVersion)
	require.Empty(t, resp.Error)
}

func TestErrorEnvelope(t *testing.T) {
	resp := Error(errTest)
	require.False(t, resp.Success)
	require.Equal(t, "test failure", resp.Error)
	require.Nil(t, resp.Data)
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test failure" }
