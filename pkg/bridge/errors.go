package bridge

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Error taxonomy for bridge calls. Transport failures (connection, timeout,
// exhausted retries) are CategoryExternal wrapping the underlying error;
// non-2xx statuses carry the HTTP code; success=false bodies are application
// rejections. The pipeline relies on these staying distinct from card errors.

func transportError(err error, operation string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal,
		fmt.Sprintf("bridge: %s request failed", operation)).
		WithTextCode("BRIDGE_UNREACHABLE")
}

func statusError(operation string, status int) error {
	category := goerrors.CategoryExternal
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = goerrors.CategoryAuth
	case status >= 400 && status < 500:
		category = goerrors.CategoryBadInput
	}
	return goerrors.New(fmt.Sprintf("bridge: %s returned status %d", operation, status), category).
		WithCode(status).
		WithTextCode("BRIDGE_STATUS")
}

func rejectionError(operation, message string) error {
	if message == "" {
		message = "request rejected"
	}
	return goerrors.New(fmt.Sprintf("bridge: %s rejected: %s", operation, message), goerrors.CategoryAuth).
		WithTextCode("BRIDGE_REJECTED").
		WithMetadata(map[string]any{"operation": operation})
}
