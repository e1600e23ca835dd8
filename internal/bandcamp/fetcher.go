package bandcamp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly"

	"github.com/DisTuneJS/plugins/internal/extractor"
)

// pageFetcher retrieves raw page markup. It is the single I/O boundary for
// page retrieval.
type pageFetcher struct {
	userAgent string
}

func newPageFetcher(userAgent string) *pageFetcher {
	return &pageFetcher{userAgent: userAgent}
}

// fetch performs a single GET for pageURL and returns the response body.
// A non-success status maps to a FetchError. No retries.
func (f *pageFetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
		colly.UserAgent(f.userAgent),
		colly.IgnoreRobotsTxt(),
	)

	var body string
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = &extractor.FetchError{
				StatusCode: r.StatusCode,
				Status:     http.StatusText(r.StatusCode),
			}
			return
		}
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("failed to fetch page: %w", fetchErr)
	}
	return body, nil
}
