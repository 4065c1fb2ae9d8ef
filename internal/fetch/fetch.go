// Package fetch retrieves raw endpoint payloads. Failures are classified
// so the extraction layer can decide whether to fall through to the next
// ranked endpoint.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmarket/chips-cli/internal/model"
)

// ErrorKind classifies why an endpoint attempt failed.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindUnreachable ErrorKind = "unreachable"
	KindHTTPStatus  ErrorKind = "http_status"
	KindDecode      ErrorKind = "decode"
)

// Error is a classified fetch failure for one endpoint attempt.
type Error struct {
	Endpoint string
	Kind     ErrorKind
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: http %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error chain, or empty.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Fetcher retrieves the payload for one endpoint on one trading date.
type Fetcher interface {
	Fetch(ctx context.Context, ep model.Endpoint, date time.Time) (*model.RawDocument, error)
}
