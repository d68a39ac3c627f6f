package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNotFound is returned when the search has no photo for the query.
var ErrNotFound = errors.New("photo not found")

// UnsplashClient queries the random-photo endpoint of the Unsplash API.
type UnsplashClient struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	now        func() time.Time
}

func NewUnsplashClient(httpClient *http.Client, baseURL, accessKey string) *UnsplashClient {
	return &UnsplashClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		now:        time.Now,
	}
}

// Search returns the regular-size URL of a random landscape photo for keywords.
func (c *UnsplashClient) Search(ctx context.Context, keywords string) (string, error) {
	q := url.Values{}
	q.Set("query", keywords)
	q.Set("client_id", c.accessKey)
	q.Set("orientation", "landscape")
	q.Set("count", "1")
	// cache buster
	q.Set("t", strconv.FormatInt(c.now().Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/photos/random?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("unsplash: unexpected status %d", resp.StatusCode)
	}

	// count=1 yields an array, but a single object is accepted too.
	path := "urls.regular"
	if parsed := gjson.ParseBytes(body); parsed.IsArray() {
		path = "0.urls.regular"
	}
	u := gjson.GetBytes(body, path).String()
	if u == "" {
		return "", ErrNotFound
	}
	return u, nil
}
