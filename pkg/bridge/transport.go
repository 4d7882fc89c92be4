package bridge

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Retry policy:
//   - Transport-level failures are retried for any method: the request may
//     never have reached the server.
//   - 5xx responses are retried only for idempotent (read-only) methods.
//     A non-idempotent call that reached the server is handed back as is.
//   - 4xx responses are definitive rejections and are never retried.
//
// Backoff is exponential from a fixed base, doubling per attempt, bounded by
// a maximum retry count. The wait blocks only the goroutine that issued this
// request and observes both the request context and client invalidation, so
// no new attempt starts after cancellation.
const (
	defaultMaxRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
)

type retryTransport struct {
	next        http.RoundTripper
	maxRetries  int
	backoffBase time.Duration
	logger      *slog.Logger
	done        <-chan struct{} // closed when the owning client is invalidated
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// rewound produces a fresh copy of the request for a retry attempt. Returns
// nil when the body cannot be replayed.
func rewound(req *http.Request) *http.Request {
	if req.Body == nil {
		return req.Clone(req.Context())
	}
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := req
	backoff := t.backoffBase

	for tries := 0; ; tries++ {
		resp, err := t.next.RoundTrip(attempt)

		retriable := err != nil ||
			(resp.StatusCode >= 500 && isIdempotent(req.Method))
		if !retriable || tries >= t.maxRetries {
			return resp, err
		}

		next := rewound(req)
		if next == nil {
			// Body cannot be replayed; surface the failure as is.
			return resp, err
		}

		if err == nil {
			drain(resp)
			t.logger.Debug("retrying after server error",
				"method", req.Method, "url", req.URL.Redacted(),
				"status", resp.StatusCode, "backoff", backoff)
		} else {
			t.logger.Debug("retrying after transport failure",
				"method", req.Method, "url", req.URL.Redacted(),
				"error", err, "backoff", backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-t.done:
			timer.Stop()
			return nil, ErrClientInvalidated
		case <-timer.C:
		}

		backoff *= 2
		attempt = next
	}
}

// Paths excluded from credential attachment: they are the means of obtaining
// the credential.
var credentialExemptSuffixes = []string{"/authenticate", "/token"}

func isCredentialEndpoint(path string) bool {
	for _, suffix := range credentialExemptSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// tokenTransport attaches the current temporal token as a bearer credential.
// Requests without a valid token proceed unauthenticated.
type tokenTransport struct {
	next   http.RoundTripper
	source TokenSource
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.source != nil && !isCredentialEndpoint(req.URL.Path) {
		if token, ok := t.source.TemporalToken(); ok {
			clone := req.Clone(req.Context())
			clone.Header.Set("Authorization", "Bearer "+token)
			req = clone
		}
	}
	return t.next.RoundTrip(req)
}
