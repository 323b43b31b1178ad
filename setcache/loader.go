package setcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPLoader returns a Loader that treats keys as URLs and fetches them with
// a GET request. A nil client uses http.DefaultClient.
func HTTPLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, key string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: unexpected status %d", key, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
}
