package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "autodork"

	// DefaultDorksFile is read line by line; every non-blank line is one query.
	DefaultDorksFile = "dorks.txt"

	// DefaultUserAgentsFile holds one User-Agent header value per line.
	DefaultUserAgentsFile = "useragents.txt"

	// DefaultProxyCache is the local cache of the remote proxy list.
	// When it exists the remote source is never contacted.
	DefaultProxyCache = "proxies.txt"

	// DefaultResultsDir receives one <dork>_results.txt file per dork.
	DefaultResultsDir = "results"

	// DefaultProxySourceURL returns a newline separated list of host:port entries.
	DefaultProxySourceURL = "https://api.proxyscrape.com/v2/?request=getproxies&protocol=http&timeout=10000&country=all&ssl=all&anonymity=all&limit=5000"

	// DefaultProbeURL is fetched through each candidate proxy during validation.
	DefaultProbeURL = "https://bing.com"

	// DefaultSearchURL is the search endpoint queried for each dork.
	DefaultSearchURL = "https://www.google.com/search"

	// DefaultSelector matches result anchors on the search results page.
	DefaultSelector = ".yuRUbf a"

	// DefaultProbeTimeout is short on purpose: public proxies that cannot
	// answer within three seconds are not worth keeping.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultQueryTimeout bounds a single search request.
	DefaultQueryTimeout = 10 * time.Second

	// DefaultFetchTimeout bounds the download of the remote proxy list.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultValidateWorkers is the number of concurrent proxy probes.
	DefaultValidateWorkers = 50

	// DefaultDispatchWorkers is the number of dorks searched concurrently.
	DefaultDispatchWorkers = 20

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultBackoffFactor scales the exponential part of the retry delay.
	DefaultBackoffFactor = 1.0

	// DefaultBackoffUnit is the time unit of the retry delay formula.
	DefaultBackoffUnit = time.Second

	// DefaultResultLimit is the maximum number of URLs saved per dork.
	// It is also the upper bound of ResultLimit.
	DefaultResultLimit = 20

	// SummaryText prints a colored plain text summary.
	SummaryText = "text"
	// SummaryMarkdown prints a GitHub Flavored Markdown summary.
	SummaryMarkdown = "markdown"
	// SummaryJSON prints the summary as JSON.
	SummaryJSON = "json"
)

// Config holds all configuration options for a batch run.
// It is populated from defaults, the config file and CLI flags, in that order,
// and passed down explicitly instead of living in global state.
type Config struct {
	// DorksFile is the path to the dork list.
	DorksFile string

	// UserAgentsFile is the path to the User-Agent list.
	// Ignored when RandomUserAgents is positive.
	UserAgentsFile string

	// RandomUserAgents generates this many User-Agent strings instead of
	// reading UserAgentsFile. Zero means read the file.
	RandomUserAgents int

	// ProxyCache is the path of the cached proxy list.
	ProxyCache string

	// ProxyFile, when set, is read as the only proxy source.
	// The remote source and the cache are bypassed.
	ProxyFile string

	// ProxySourceURL is the remote proxy list fetched when the cache is missing.
	ProxySourceURL string

	// ResultsDir is the output directory for result files.
	ResultsDir string

	// ProbeURL is the validation target.
	ProbeURL string

	// SearchURL is the search endpoint.
	SearchURL string

	// Selector is the CSS selector for result anchors.
	Selector string

	// ProbeTimeout bounds each validation request.
	ProbeTimeout time.Duration

	// QueryTimeout bounds each search request.
	QueryTimeout time.Duration

	// FetchTimeout bounds the remote proxy list download.
	FetchTimeout time.Duration

	// ValidateWorkers caps concurrent proxy probes.
	ValidateWorkers int

	// DispatchWorkers caps concurrent dorks.
	DispatchWorkers int

	// MaxRetries is the number of retries per dork after the first attempt.
	MaxRetries int

	// BackoffFactor scales the exponential part of the retry delay.
	BackoffFactor float64

	// BackoffUnit is the time unit of the retry delay.
	BackoffUnit time.Duration

	// ResultLimit caps the URLs written per dork.
	ResultLimit int

	// Rate limits search requests per second across all workers.
	// Zero disables the limiter.
	Rate float64

	// Summary selects the summary format: text, markdown or json.
	Summary string

	// SummaryFile writes the summary to a file instead of stdout.
	SummaryFile string

	// History records runs and dispatch outcomes in the SQLite database.
	History bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string

	// Strict makes the run fail when any dork was exhausted or failed.
	Strict bool

	// Verbose enables debug logging, including per-proxy probe errors.
	Verbose bool

	// ConfigFilePath is the explicit path to the config file, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DorksFile:       DefaultDorksFile,
		UserAgentsFile:  DefaultUserAgentsFile,
		ProxyCache:      DefaultProxyCache,
		ProxySourceURL:  DefaultProxySourceURL,
		ResultsDir:      DefaultResultsDir,
		ProbeURL:        DefaultProbeURL,
		SearchURL:       DefaultSearchURL,
		Selector:        DefaultSelector,
		ProbeTimeout:    DefaultProbeTimeout,
		QueryTimeout:    DefaultQueryTimeout,
		FetchTimeout:    DefaultFetchTimeout,
		ValidateWorkers: DefaultValidateWorkers,
		DispatchWorkers: DefaultDispatchWorkers,
		MaxRetries:      DefaultMaxRetries,
		BackoffFactor:   DefaultBackoffFactor,
		BackoffUnit:     DefaultBackoffUnit,
		ResultLimit:     DefaultResultLimit,
		Summary:         SummaryText,
		History:         true,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for autodork.
// On Linux: ~/.local/share/autodork
// On macOS: ~/Library/Application Support/autodork
// On Windows: %LOCALAPPDATA%\autodork
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for autodork.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.DorksFile == "" {
		return ErrNoDorksFile
	}
	if c.UserAgentsFile == "" && c.RandomUserAgents <= 0 {
		return ErrNoUserAgentsFile
	}
	if c.RandomUserAgents < 0 {
		return ErrInvalidRandomUserAgents
	}
	if c.ProxyFile == "" && c.ProxyCache == "" {
		return ErrNoProxySource
	}
	if c.ResultsDir == "" {
		return ErrNoResultsDir
	}
	if c.ProbeTimeout <= 0 || c.QueryTimeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ValidateWorkers <= 0 || c.DispatchWorkers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.BackoffFactor < 0 || c.BackoffUnit < 0 {
		return ErrInvalidBackoff
	}
	if c.ResultLimit <= 0 || c.ResultLimit > DefaultResultLimit {
		return ErrInvalidResultLimit
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	switch c.Summary {
	case SummaryText, SummaryMarkdown, SummaryJSON:
	default:
		return ErrInvalidSummaryFormat
	}
	return nil
}
