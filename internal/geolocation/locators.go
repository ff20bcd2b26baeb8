package geolocation

import (
	"context"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/models"
)

// ReportedLocator answers with a fix (or failure) reported by the client
// device, which owns the real geolocation capability.
type ReportedLocator struct {
	Fix *models.DeviceFix
	Err error
}

// CurrentPosition implements Locator.
func (r ReportedLocator) CurrentPosition(ctx context.Context, _ Options) (models.DeviceFix, error) {
	if err := ctx.Err(); err != nil {
		return models.DeviceFix{}, err
	}
	if r.Err != nil {
		return models.DeviceFix{}, r.Err
	}
	if r.Fix == nil {
		return models.DeviceFix{}, ErrUnavailable
	}
	return *r.Fix, nil
}

// ReasonError maps a client-reported failure reason to a sentinel error.
func ReasonError(reason string) error {
	switch reason {
	case "":
		return nil
	case "denied", "permission_denied":
		return ErrDenied
	case "timeout":
		return ErrTimeout
	default:
		return ErrUnavailable
	}
}

// ClientLocator holds the latest fix reported by a remote client. Each
// Report replaces the previous one, so a recenter answers with whatever the
// client sent along with it.
type ClientLocator struct {
	mu  sync.Mutex
	fix *models.DeviceFix
	err error
}

// NewClientLocator creates a locator seeded with an initial report.
func NewClientLocator(fix *models.DeviceFix, err error) *ClientLocator {
	l := &ClientLocator{}
	l.Report(fix, err)
	return l
}

// Report replaces the stored fix or failure.
func (l *ClientLocator) Report(fix *models.DeviceFix, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fix != nil {
		f := *fix
		fix = &f
	}
	l.fix = fix
	l.err = err
}

// CurrentPosition implements Locator.
func (l *ClientLocator) CurrentPosition(ctx context.Context, opts Options) (models.DeviceFix, error) {
	l.mu.Lock()
	r := ReportedLocator{Fix: l.fix, Err: l.err}
	l.mu.Unlock()
	return r.CurrentPosition(ctx, opts)
}
