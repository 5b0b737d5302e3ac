// Package input loads the dork list and user-agent pool for a run.
package input

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/corpix/uarand"
	"github.com/nao1215/autodork/internal/model"
)

// Input errors.
var (
	// ErrInputNotFound is returned when a required input file is missing.
	ErrInputNotFound = errors.New("input file not found")

	// ErrNoDorks is returned when the dorks file has no usable lines.
	ErrNoDorks = errors.New("no dorks to search")

	// ErrNoUserAgents is returned when the user-agent file has no usable lines.
	ErrNoUserAgents = errors.New("no user agents available")
)

// ReadLines reads path and splits it on '\n', dropping a trailing '\r'
// from each line. Blank lines are kept.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}

// nonBlank returns the lines that are not empty after trimming spaces.
// Lines are returned as read, not trimmed.
func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// LoadDorks reads the dorks file. Blank lines are skipped; everything
// else is kept verbatim and in order, duplicates included.
func LoadDorks(path string) ([]model.DorkQuery, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	dorks := nonBlank(lines)
	if len(dorks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDorks, path)
	}
	return model.DorksFromLines(dorks), nil
}

// LoadUserAgents reads the user-agent file, skipping blank lines.
func LoadUserAgents(path string) (*model.UserAgentPool, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	agents := nonBlank(lines)
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoUserAgents, path)
	}
	return model.NewUserAgentPool(agents), nil
}

// RandomUserAgents generates a pool of n realistic browser user agents
// instead of reading them from a file.
func RandomUserAgents(n int) (*model.UserAgentPool, error) {
	if n <= 0 {
		return nil, ErrNoUserAgents
	}
	agents := make([]string, n)
	for i := range agents {
		agents[i] = uarand.GetRandom()
	}
	return model.NewUserAgentPool(agents), nil
}
