package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoDorksFile is returned when no dork list path is configured.
	ErrNoDorksFile = errors.New("no dorks file specified: use --dorks")

	// ErrNoUserAgentsFile is returned when neither a User-Agent file nor
	// --random-ua is configured.
	ErrNoUserAgentsFile = errors.New("no user agents file specified: use --user-agents or --random-ua")

	// ErrInvalidRandomUserAgents is returned when --random-ua is negative.
	ErrInvalidRandomUserAgents = errors.New("invalid random user agent count: must be non-negative")

	// ErrNoProxySource is returned when neither a proxy file nor a cache path is set.
	ErrNoProxySource = errors.New("no proxy source specified: use --proxies or --proxy-cache")

	// ErrNoResultsDir is returned when the output directory is empty.
	ErrNoResultsDir = errors.New("no results directory specified: use --results")

	// ErrInvalidTimeout is returned when any timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when a worker pool size is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidBackoff is returned when the backoff factor or unit is negative.
	ErrInvalidBackoff = errors.New("invalid backoff: must be non-negative")

	// ErrInvalidResultLimit is returned when the per-dork result cap is outside 1..20.
	ErrInvalidResultLimit = errors.New("invalid result limit: must be between 1 and 20")

	// ErrInvalidRate is returned when the request rate is negative.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidSummaryFormat is returned for an unknown --summary value.
	ErrInvalidSummaryFormat = errors.New("invalid summary format: must be text, markdown or json")
)
