package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalURL(t *testing.T) {
	url, err := localURL(":8080", "/-/healthy")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/-/healthy", url)

	url, err = localURL("10.0.0.2:9000", "/-/ready")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:9000/-/ready", url)

	_, err = localURL("no-port", "/")
	assert.Error(t, err)
}

func TestRunLiveness(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/-/healthy", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	cfg := config.Server{}
	cfg.Echo.ListenAddress = strings.TrimPrefix(srv.URL, "http://")

	require.NoError(t, runLiveness(context.Background(), cfg, false))

	status = http.StatusServiceUnavailable
	assert.Error(t, runLiveness(context.Background(), cfg, false))
}
