package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NataTusia/Haah-and-Cash/httpclient"
	"github.com/NataTusia/Haah-and-Cash/models"
)

const placeholder = "https://example.org/placeholder.jpg"
const scriptPlaceholder = "https://example.org/script.jpg"

func newResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewUnsplashClient(httpclient.New(httpclient.Config{RedactQuery: true}), srv.URL, "key")
	return NewResolver(client, Options{
		FallbackKeyword:      "cryptocurrency",
		PlaceholderURL:       placeholder,
		ScriptPlaceholderURL: scriptPlaceholder,
	}), &calls
}

func TestUnsplashClientParsesArrayAndObject(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "array", body: `[{"urls":{"regular":"https://img/1.jpg"}}]`},
		{name: "object", body: `{"urls":{"regular":"https://img/1.jpg"}}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/photos/random", r.URL.Path)
				assert.Equal(t, "bitcoin", r.URL.Query().Get("query"))
				assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
				assert.Equal(t, "key", r.URL.Query().Get("client_id"))
				w.Write([]byte(testCase.body))
			}))
			defer srv.Close()

			c := NewUnsplashClient(httpclient.New(httpclient.Config{}), srv.URL, "key")
			u, err := c.Search(context.Background(), "bitcoin")
			require.NoError(t, err)
			assert.Equal(t, "https://img/1.jpg", u)
		})
	}
}

func TestResolvePhotoFallsBackToGenericKeyword(t *testing.T) {
	r, calls := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("query") == "cryptocurrency" {
			w.Write([]byte(`[{"urls":{"regular":"https://img/generic.jpg"}}]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	assert.Equal(t, "https://img/generic.jpg", r.ResolvePhoto(context.Background(), "qwzx nonsense"))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestResolvePhotoNeverFails(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "server error", handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{name: "empty array", handler: func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`[]`)) }},
		{name: "garbage", handler: func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`<html>`)) }},
		{name: "rate limited", handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r, _ := newResolver(t, testCase.handler)
			for _, kw := range []string{"", "bitcoin", "???"} {
				got := r.ResolvePhoto(context.Background(), kw)
				assert.NotEmpty(t, got)
				assert.Equal(t, placeholder, got)
			}
		})
	}
}

func TestResolvePhotoUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	r := NewResolver(NewUnsplashClient(httpclient.New(httpclient.Config{}), srv.URL, "key"), Options{
		FallbackKeyword: "cryptocurrency",
		PlaceholderURL:  placeholder,
	})
	assert.Equal(t, placeholder, r.ResolvePhoto(context.Background(), "eth"))
}

func TestForKindSkipsSearchForScriptFormats(t *testing.T) {
	r, calls := newResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"urls":{"regular":"https://img/found.jpg"}}]`))
	})

	assert.Equal(t, scriptPlaceholder, r.ForKind(context.Background(), models.MultiSlide, "slides"))
	assert.Equal(t, scriptPlaceholder, r.ForKind(context.Background(), models.ShortFormVideo, "video"))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))

	assert.Equal(t, "https://img/found.jpg", r.ForKind(context.Background(), models.StandardPost, "coins"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestResolverDefaultsEmptyPlaceholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	r := NewResolver(NewUnsplashClient(httpclient.New(httpclient.Config{}), srv.URL, "key"), Options{})

	assert.Equal(t, DefaultPlaceholderURL, r.ResolvePhoto(context.Background(), "eth"))
	assert.Equal(t, DefaultScriptPlaceholderURL, r.ForKind(context.Background(), models.MultiSlide, "slides"))
}
