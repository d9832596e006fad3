package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/starford/othala/internal/covers"
)

var coverHTTP = &http.Client{Timeout: 30 * time.Second}

// fetchURL returns a cover fetcher downloading from a remote URL.
func fetchURL(url string) covers.FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := coverHTTP.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	}
}

// fetchFile returns a cover fetcher reading a local file, used for
// covers already on disk inside a Calibre library.
func fetchFile(path string) covers.FetchFunc {
	return func(_ context.Context) ([]byte, error) {
		return os.ReadFile(path)
	}
}
