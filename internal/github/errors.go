package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gh "github.com/google/go-github/v57/github"
)

// RateLimitError reports that GitHub refused a request because the rate
// limit was hit. Reset is zero when GitHub did not say when it resets.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "GitHub API rate limit exceeded"
	}
	return fmt.Sprintf("GitHub API rate limit exceeded; resets at %s", e.Reset.Format(time.RFC1123))
}

// APIError is any other non-2xx answer from GitHub.
type APIError struct {
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error: %d", e.Status)
}

// IsRateLimit reports whether err is, or wraps, a *RateLimitError.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsNotFound reports whether err is, or wraps, a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// translateError maps go-github errors onto RateLimitError and APIError.
// Forbidden is always treated as rate limiting.
func translateError(err error, now time.Time) error {
	if err == nil {
		return nil
	}

	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return &RateLimitError{Reset: rle.Rate.Reset.Time}
	}

	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		out := &RateLimitError{}
		if abuse.RetryAfter != nil {
			out.Reset = now.Add(*abuse.RetryAfter)
		}
		return out
	}

	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		if er.Response.StatusCode == http.StatusForbidden {
			return &RateLimitError{Reset: resetFromHeader(er.Response.Header)}
		}
		return &APIError{Status: er.Response.StatusCode}
	}

	var accepted *gh.AcceptedError
	if errors.As(err, &accepted) {
		return &APIError{Status: http.StatusAccepted}
	}

	return err
}

// resetFromHeader reads X-RateLimit-Reset (epoch seconds).
func resetFromHeader(h http.Header) time.Time {
	v := h.Get("X-RateLimit-Reset")
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
