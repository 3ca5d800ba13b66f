package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindOther        Kind = "other"
)

// Error is returned by every Gateway call that fails.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("github %s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("github %s: %s: %s", e.Op, e.Kind, e.Message)
}

// KindOf returns the Kind of err, or KindOther when err is not a gateway error.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindOther
}

// IsKind reports whether err is a gateway error of kind k.
func IsKind(err error, k Kind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == k
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindOther
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &Error{Op: op, Kind: KindRateLimited, Status: statusOf(rateErr.Response), Message: rateErr.Message}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &Error{Op: op, Kind: KindRateLimited, Status: statusOf(abuseErr.Response), Message: abuseErr.Message}
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		status := statusOf(respErr.Response)
		return &Error{Op: op, Kind: kindForStatus(status), Status: status, Message: describe(respErr)}
	}
	return &Error{Op: op, Kind: KindOther, Message: err.Error()}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// describe keeps the provider's own wording, e.g. "name already exists on this account".
func describe(e *gh.ErrorResponse) string {
	parts := []string{e.Message}
	for _, detail := range e.Errors {
		if detail.Message != "" {
			parts = append(parts, detail.Message)
		} else if detail.Code != "" {
			parts = append(parts, detail.Field+" "+detail.Code)
		}
	}
	return strings.Join(parts, ": ")
}
