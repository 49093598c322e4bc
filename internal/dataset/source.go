package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/retry"
)

// Source produces the raw table a Dataset is built from.
type Source interface {
	// Name identifies the source in logs, errors and cache keys.
	Name() string
	Read(ctx context.Context) (*RawTable, error)
}

// ParseCSV reads a header row followed by data rows.
func ParseCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	table := &RawTable{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// FileSource reads a CSV file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Read(_ context.Context) (*RawTable, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// URLSource downloads a CSV over HTTP(S), retrying transient failures.
type URLSource struct {
	URL    string
	Client *http.Client
	Retry  *retry.Policy
}

// NewURLSource creates a URL source with a 30s client and 3 attempts.
func NewURLSource(url string) *URLSource {
	return &URLSource{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
		Retry:  retry.NewPolicy(3, 500*time.Millisecond),
	}
}

func (s *URLSource) Name() string { return s.URL }

func (s *URLSource) Read(ctx context.Context) (*RawTable, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	policy := s.Retry
	if policy == nil {
		policy = retry.NewPolicy(1, 0)
	}

	var table *RawTable
	err := policy.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching csv: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("fetching csv: unexpected status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return retry.Permanent(fmt.Errorf("fetching csv: unexpected status %d", resp.StatusCode))
		}

		parsed, err := ParseCSV(resp.Body)
		if err != nil {
			return retry.Permanent(err)
		}
		table = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}
