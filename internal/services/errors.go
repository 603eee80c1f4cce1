package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/grantshandy/starify/internal/shared"
)

// ExchangeError is a failed call to Spotify's token endpoint. It matches [shared.ErrExchangeFailed].
//
// Transient failures (network, timeouts, 5xx, 429) may succeed on retry. Terminal ones (invalid_grant,
// revoked or foreign credentials) will not.
type ExchangeError struct {
	Op        string
	Status    int
	Code      string
	Transient bool
	Err       error
}

func (e *ExchangeError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("spotify token %s failed: %s (status %d)", e.Op, e.Code, e.Status)
	case e.Status != 0:
		return fmt.Sprintf("spotify token %s failed: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("spotify token %s failed: %v", e.Op, e.Err)
	}
}

func (e *ExchangeError) Unwrap() error { return e.Err }

func (e *ExchangeError) Is(target error) bool { return target == shared.ErrExchangeFailed }

// Temporary reports whether the failure is transient.
func (e *ExchangeError) Temporary() bool { return e.Transient }

// classify wraps an oauth2 error, reading the status from a [oauth2.RetrieveError].
// Errors without a response are transport failures and count as transient.
func classify(op string, err error) *ExchangeError {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &ExchangeError{Op: op, Transient: true, Err: err}
	}

	e := &ExchangeError{Op: op, Code: re.ErrorCode, Err: err}
	if re.Response != nil {
		e.Status = re.Response.StatusCode
	}
	e.Transient = transientStatus(e.Status)
	return e
}

func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// apiError wraps a Web API failure under sentinel, keeping Spotify's status when it sent one.
func apiError(sentinel error, op string, err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %s: status %d: %s", sentinel, op, se.Status, se.Message)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}
