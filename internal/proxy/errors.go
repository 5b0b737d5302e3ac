package proxy

import "errors"

// Proxy source and validation errors.
var (
	// ErrInvalidCandidate is returned when a candidate cannot be parsed as
	// a proxy address. Expected format is "host:port" or "scheme://host:port".
	ErrInvalidCandidate = errors.New("invalid proxy candidate: expected host:port or scheme://host:port")

	// ErrUnsupportedScheme is returned when a candidate uses a scheme other
	// than http, https, socks5 or socks5h.
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")

	// ErrSourceStatus is returned when the remote proxy-list provider
	// answers with a non-200 status.
	ErrSourceStatus = errors.New("proxy list provider returned unexpected status")

	// ErrSourceRead is returned when the proxy list cannot be read.
	ErrSourceRead = errors.New("failed to read proxy list")

	// ErrProbeTimeout is returned when a probe does not complete in time.
	ErrProbeTimeout = errors.New("probe timed out")

	// ErrProbeProxy is returned when the proxy itself refused or broke the
	// connection.
	ErrProbeProxy = errors.New("proxy error")

	// ErrProbeRequest is returned for any other failure of the probe request.
	ErrProbeRequest = errors.New("probe request failed")

	// ErrProbeStatus is returned when the probe completed with a non-200 status.
	ErrProbeStatus = errors.New("probe returned non-200 status")
)

// ProbeStatus is the classified result of probing one candidate.
type ProbeStatus int

const (
	// ProbeOK indicates the candidate answered the probe with HTTP 200.
	ProbeOK ProbeStatus = iota

	// ProbeTimeout indicates the connection or response exceeded the timeout.
	ProbeTimeout

	// ProbeProxyError indicates the proxy refused the tunnel or handshake.
	ProbeProxyError

	// ProbeRequestError indicates any other request failure.
	ProbeRequestError

	// ProbeBadStatus indicates the request went through but the status
	// was not 200.
	ProbeBadStatus

	// ProbeInvalid indicates the candidate could not be parsed, so no
	// network call was made.
	ProbeInvalid
)

// String returns a human-readable description of the probe status.
func (s ProbeStatus) String() string {
	switch s {
	case ProbeOK:
		return "OK"
	case ProbeTimeout:
		return "timeout"
	case ProbeProxyError:
		return "proxy error"
	case ProbeRequestError:
		return "request error"
	case ProbeBadStatus:
		return "bad status"
	case ProbeInvalid:
		return "invalid candidate"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error for this status, or nil if OK.
func (s ProbeStatus) Error() error {
	switch s {
	case ProbeOK:
		return nil
	case ProbeTimeout:
		return ErrProbeTimeout
	case ProbeProxyError:
		return ErrProbeProxy
	case ProbeRequestError:
		return ErrProbeRequest
	case ProbeBadStatus:
		return ErrProbeStatus
	case ProbeInvalid:
		return ErrInvalidCandidate
	default:
		return errors.New("unknown probe status")
	}
}
