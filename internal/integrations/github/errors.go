package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v60/github"
)

// Sentinel errors for lookup failure classification. Callers use
// IsNotFound / IsTransient to decide between failing the run and retrying.
var (
	ErrNotFound  = errors.New("not found")
	ErrTransient = errors.New("transient API error")
)

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// classify tags an API error with the matching sentinel. 404s become
// ErrNotFound; 5xx, rate limits and network-level failures become
// ErrTransient. Everything else passes through unchanged.
func classify(err error, resp *github.Response) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		status = http.StatusTooManyRequests
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return fmt.Errorf("%v: %w", err, ErrTransient)
	case status == 0:
		// No HTTP status at all means the request never completed.
		return fmt.Errorf("%v: %w", err, ErrTransient)
	}
	return err
}
