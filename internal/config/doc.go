// Package config holds the runtime settings for autodork: input and output
// paths, proxy validation and search timeouts, worker pool sizes and the
// retry policy. Settings come from NewConfig defaults, an optional .autodork
// YAML file and finally command line flags.
package config
