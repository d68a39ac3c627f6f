package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, New(Config{}).Timeout)
	assert.Equal(t, 3*time.Second, New(Config{Timeout: 3 * time.Second}).Timeout)
}

func TestRoundTripPassesResponseThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	resp, err := New(Config{RedactQuery: true}).Get(srv.URL + "/photos/random?client_id=secret")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestRoundTripUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{Timeout: time.Second}).Get(url)
	assert.Error(t, err)
}

func TestLogURL(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://api.unsplash.com/photos/random?client_id=secret&query=btc", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.unsplash.com/photos/random", logURL(req, true))
	assert.Equal(t, "https://api.unsplash.com/photos/random?client_id=secret&query=btc", logURL(req, false))
}
