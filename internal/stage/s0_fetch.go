// Package stage implements the S0-S9 pipeline stages, each wiring one or
// more collaborator packages (llm, citations, quality, images, similarity,
// urlcheck, storage, render) behind the workflow.Stage contract.
package stage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"seoforge/internal/core"
)

// DataFetch is S0: validates the job configuration and, when a company
// URL is present, discovers the site's published pages from its sitemap
// for S5's later internal-link matching. Grounded on the teacher's
// fetch.go plain net/http + goquery extraction idiom.
type DataFetch struct {
	client *http.Client
}

// NewDataFetch builds S0 with a bounded-timeout HTTP client.
func NewDataFetch() *DataFetch {
	return &DataFetch{client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *DataFetch) Name() string { return "S0" }

func (s *DataFetch) Run(ctx context.Context, ec *core.ExecutionContext) error {
	if strings.TrimSpace(ec.JobConfig.Keyword) == "" {
		ec.AddError(s.Name(), core.InputInvalid, "keyword is required", false)
		return fmt.Errorf("job config: keyword is required")
	}
	if ec.JobConfig.WordCountMin > 0 && ec.JobConfig.WordCountMax > 0 && ec.JobConfig.WordCountMin > ec.JobConfig.WordCountMax {
		ec.AddError(s.Name(), core.InputInvalid, "word_count_min exceeds word_count_max", false)
		return fmt.Errorf("job config: word_count_min exceeds word_count_max")
	}

	if ec.CompanyData == nil || strings.TrimSpace(ec.CompanyData.URL) == "" {
		return nil
	}

	urls, err := s.fetchSitemap(ctx, ec.CompanyData.URL)
	if err != nil {
		ec.AddError(s.Name(), core.UpstreamTransient, err.Error(), true)
		return err
	}
	ec.SitemapURLs = urls
	return nil
}

func (s *DataFetch) fetchSitemap(ctx context.Context, siteURL string) ([]core.SitemapURL, error) {
	sitemapURL := strings.TrimRight(siteURL, "/") + "/sitemap.xml"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build sitemap request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("read sitemap body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	var urls []core.SitemapURL
	doc.Find("url").Each(func(_ int, sel *goquery.Selection) {
		loc := strings.TrimSpace(sel.Find("loc").First().Text())
		if loc == "" {
			return
		}
		title := titleFromSlug(loc)
		urls = append(urls, core.SitemapURL{URL: loc, Title: title})
	})

	return urls, nil
}

// titleFromSlug derives a human-readable title from a URL's final path
// segment, used as a fallback label for S5's internal-link matching.
func titleFromSlug(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 || idx == len(trimmed)-1 {
		return rawURL
	}
	slug := trimmed[idx+1:]
	slug = strings.TrimSuffix(slug, ".html")
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
