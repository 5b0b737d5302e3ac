package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/autodork/internal/model"
)

// DefaultRemoteURL is the proxy-list provider used when no cache exists.
const DefaultRemoteURL = "https://api.proxyscrape.com/v2/?request=getproxies&protocol=http&timeout=10000&country=all&ssl=all&anonymity=all&limit=5000"

// DefaultFetchTimeout bounds the remote proxy-list download.
const DefaultFetchTimeout = 30 * time.Second

// maxListSize caps the remote proxy list body.
const maxListSize = 10 * 1024 * 1024 // 10 MB

// Source supplies raw proxy candidates.
// Errors are fatal for the run; sources never retry.
type Source interface {
	Fetch(ctx context.Context) ([]model.ProxyCandidate, error)
}

// SplitLines splits a proxy list on '\n' the way it was written, keeping
// blank entries. A trailing '\r' on each line is dropped so lists served
// with CRLF line endings yield clean addresses.
func SplitLines(raw string) []model.ProxyCandidate {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return model.CandidatesFromLines(lines)
}

// FileSource reads candidates from a local list file and never touches
// the network.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the file and returns its lines.
func (s *FileSource) Fetch(_ context.Context) ([]model.ProxyCandidate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, s.path, err)
	}
	return SplitLines(string(data)), nil
}

// RemoteSource downloads candidates from a proxy-list provider.
type RemoteSource struct {
	url    string
	client *http.Client
}

// RemoteOption configures a RemoteSource.
type RemoteOption func(*RemoteSource)

// WithHTTPClient sets the client used for the download.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteSource) {
		if c != nil {
			s.client = c
		}
	}
}

// NewRemoteSource creates a source downloading from url.
// An empty url means DefaultRemoteURL.
func NewRemoteSource(url string, opts ...RemoteOption) *RemoteSource {
	if url == "" {
		url = DefaultRemoteURL
	}
	s := &RemoteSource{
		url:    url,
		client: &http.Client{Timeout: DefaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchRaw downloads the list and returns the body unchanged.
func (s *RemoteSource) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrSourceStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	return body, nil
}

// Fetch downloads the list and returns its lines.
func (s *RemoteSource) Fetch(ctx context.Context) ([]model.ProxyCandidate, error) {
	body, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(body)), nil
}

// CachedSource serves candidates from a cache file, populating it from a
// RemoteSource the first time. An existing cache is never refreshed.
type CachedSource struct {
	path   string
	remote *RemoteSource
	logger *slog.Logger
}

// NewCachedSource creates a cache-first source.
// If logger is nil, slog.Default() is used.
func NewCachedSource(path string, remote *RemoteSource, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{path: path, remote: remote, logger: logger}
}

// Fetch returns the cached list if present, otherwise downloads it,
// writes the raw body to the cache and returns it split by line.
func (s *CachedSource) Fetch(ctx context.Context) ([]model.ProxyCandidate, error) {
	data, err := os.ReadFile(s.path)
	if err == nil {
		s.logger.Debug("using cached proxy list", "path", s.path)
		return SplitLines(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, s.path, err)
	}

	s.logger.Info("fetching proxy list", "url", s.remote.url)
	body, err := s.remote.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, body, 0600); err != nil {
		return nil, fmt.Errorf("failed to write proxy cache: %w", err)
	}
	return SplitLines(string(body)), nil
}
