package config

import "time"

// File represents the structure of the .autodork configuration file.
// Every field is optional; nil fields leave the corresponding Config value untouched.
type File struct {
	Dorks            *string        `yaml:"dorks,omitempty"`
	UserAgents       *string        `yaml:"userAgents,omitempty"`
	RandomUserAgents *int           `yaml:"randomUserAgents,omitempty"`
	ProxyCache       *string        `yaml:"proxyCache,omitempty"`
	ProxyFile        *string        `yaml:"proxies,omitempty"`
	ProxySourceURL   *string        `yaml:"proxySourceURL,omitempty"`
	Results          *string        `yaml:"results,omitempty"`
	ResultLimit      *int           `yaml:"resultLimit,omitempty"`
	Probe            ProbeFile      `yaml:"probe,omitempty"`
	Search           SearchFile     `yaml:"search,omitempty"`
	Workers          WorkersFile    `yaml:"workers,omitempty"`
	Retry            RetryFile      `yaml:"retry,omitempty"`
	Summary          *string        `yaml:"summary,omitempty"`
	History          *bool          `yaml:"history,omitempty"`
	DBDir            *string        `yaml:"dbDir,omitempty"`
	Strict           *bool          `yaml:"strict,omitempty"`
	FetchTimeout     *time.Duration `yaml:"fetchTimeout,omitempty"`
}

// ProbeFile configures proxy validation.
type ProbeFile struct {
	URL     *string        `yaml:"url,omitempty"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// SearchFile configures the search endpoint.
type SearchFile struct {
	URL      *string        `yaml:"url,omitempty"`
	Selector *string        `yaml:"selector,omitempty"`
	Timeout  *time.Duration `yaml:"timeout,omitempty"`
	Rate     *float64       `yaml:"rate,omitempty"`
}

// WorkersFile sizes the two worker pools.
type WorkersFile struct {
	Validate *int `yaml:"validate,omitempty"`
	Dispatch *int `yaml:"dispatch,omitempty"`
}

// RetryFile configures the per-dork retry policy.
type RetryFile struct {
	MaxRetries    *int           `yaml:"maxRetries,omitempty"`
	BackoffFactor *float64       `yaml:"backoffFactor,omitempty"`
	BackoffUnit   *time.Duration `yaml:"backoffUnit,omitempty"`
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil || cfg == nil {
		return
	}
	setString(&cfg.DorksFile, f.Dorks)
	setString(&cfg.UserAgentsFile, f.UserAgents)
	setValue(&cfg.RandomUserAgents, f.RandomUserAgents)
	setString(&cfg.ProxyCache, f.ProxyCache)
	setString(&cfg.ProxyFile, f.ProxyFile)
	setString(&cfg.ProxySourceURL, f.ProxySourceURL)
	setString(&cfg.ResultsDir, f.Results)
	setValue(&cfg.ResultLimit, f.ResultLimit)

	setString(&cfg.ProbeURL, f.Probe.URL)
	setValue(&cfg.ProbeTimeout, f.Probe.Timeout)

	setString(&cfg.SearchURL, f.Search.URL)
	setString(&cfg.Selector, f.Search.Selector)
	setValue(&cfg.QueryTimeout, f.Search.Timeout)
	setValue(&cfg.Rate, f.Search.Rate)

	setValue(&cfg.ValidateWorkers, f.Workers.Validate)
	setValue(&cfg.DispatchWorkers, f.Workers.Dispatch)

	setValue(&cfg.MaxRetries, f.Retry.MaxRetries)
	setValue(&cfg.BackoffFactor, f.Retry.BackoffFactor)
	setValue(&cfg.BackoffUnit, f.Retry.BackoffUnit)

	setString(&cfg.Summary, f.Summary)
	setValue(&cfg.History, f.History)
	setString(&cfg.DBDir, f.DBDir)
	setValue(&cfg.Strict, f.Strict)
	setValue(&cfg.FetchTimeout, f.FetchTimeout)
}

// setString ignores empty strings so that "dorks: ''" keeps the default.
func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
