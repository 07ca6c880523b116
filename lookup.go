package discourseapi

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupExists          = errors.New("group already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrChallengeUnavailable = errors.New("honeypot challenge unavailable")
)

// LookupState is the outcome of resolving a name to an id.
type LookupState int

const (
	// LookupFound: the lookup returned 200 and the id field.
	LookupFound LookupState = iota + 1
	// LookupNotFound: the forum answered with a non-200 status, or the
	// response had no id.
	LookupNotFound
	// LookupFailed: the lookup request itself failed.
	LookupFailed
)

func (s LookupState) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lookup is the result of an id resolution. ID is valid only for
// LookupFound, Err only for LookupFailed.
type Lookup struct {
	State  LookupState
	ID     int64
	Status int
	Err    error
}

// Found reports LookupFound.
func (l Lookup) Found() bool { return l.State == LookupFound }

// errFor converts a non-found lookup into an error: notFound wrapped with
// the looked-up name, or the transport error unchanged.
func (l Lookup) errFor(notFound error, name string) error {
	switch l.State {
	case LookupFound:
		return nil
	case LookupFailed:
		return l.Err
	default:
		return fmt.Errorf("%w: %s (status %d)", notFound, name, l.Status)
	}
}

// lookupID issues one GET and extracts an integer field.
func (c *Client) lookupID(ctx context.Context, path, field string) Lookup {
	res, err := c.get(ctx, path, nil)
	if err != nil {
		return Lookup{State: LookupFailed, Err: err}
	}
	if res.Status != 200 {
		return Lookup{State: LookupNotFound, Status: res.Status}
	}
	id := res.Get(field)
	if !id.Exists() || id.Int() == 0 {
		return Lookup{State: LookupNotFound, Status: res.Status}
	}
	return Lookup{State: LookupFound, ID: id.Int(), Status: res.Status}
}
