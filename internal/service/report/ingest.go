package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inbucket/html2text"
	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/pkg/retry"
)

const maxResponseSize = 5 * 1024 * 1024

// contextLimit caps the per-turn background so one verbose report cannot
// crowd out the rest of the prompt.
const contextLimit = 6000

// Ingestor turns external analysis documents into stored reports a
// conversation can be anchored to.
type Ingestor struct {
	reports core.ReportRepository
	client  *http.Client
	retrier *retry.Policy
}

func NewIngestor(reports core.ReportRepository) *Ingestor {
	return &Ingestor{
		reports: reports,
		client:  &http.Client{Timeout: 30 * time.Second},
		retrier: retry.DefaultPolicy(),
	}
}

// FromFile ingests a local document. HTML files are converted to plain
// text; anything else is stored as-is.
func (i *Ingestor) FromFile(ctx context.Context, ownerID, title, path string) (*core.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text := string(data)
	if isHTML(path, text) {
		text, err = html2text.FromString(text, html2text.Options{
			OmitLinks:    false,
			PrettyTables: true,
		})
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return i.save(ctx, ownerID, title, text)
}

// FromURL fetches a document over HTTP and ingests it.
func (i *Ingestor) FromURL(ctx context.Context, ownerID, title, url string) (*core.Report, error) {
	var text string
	err := i.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", core.ParleyUserAgent)

		resp, err := i.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		}

		limitedReader := io.LimitReader(resp.Body, maxResponseSize)

		text, err = html2text.FromReader(limitedReader, html2text.Options{
			OmitLinks:    false,
			PrettyTables: true,
		})
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = url
	}

	return i.save(ctx, ownerID, title, text)
}

func (i *Ingestor) save(ctx context.Context, ownerID, title, text string) (*core.Report, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("document is empty: %w", core.ErrInvalidInput)
	}

	report := core.Report{
		ID:          uuid.NewString()[:8],
		OwnerID:     ownerID,
		Title:       title,
		Analysis:    text,
		ChatContext: clip(text, contextLimit),
		CreatedAt:   time.Now().UTC(),
	}

	if err := i.reports.SaveReport(ctx, report); err != nil {
		return nil, err
	}
	return &report, nil
}

func isHTML(path, content string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	head := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}
