package fabric

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mattjoyce/fabctl/internal/log"
)

const (
	// lroInitialBackoff is the first poll delay; it doubles each iteration.
	lroInitialBackoff = 400 * time.Millisecond

	// lroMaxBackoff caps the per-iteration delay.
	lroMaxBackoff = 10 * time.Second

	// lroMaxPolls bounds the polling loop (~10 minutes at max backoff).
	lroMaxPolls = 600
)

// Sleeper waits for d or until ctx is done. Injectable so tests can observe
// the backoff schedule without waiting it out.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller drives a long-running operation to its terminal state. It never
// shows UI and never persists operation state.
type Poller struct {
	client *Client
	sleep  Sleeper
	logger *slog.Logger
}

// NewPoller creates a Poller over client.
func NewPoller(client *Client, opts ...PollerOption) *Poller {
	p := &Poller{
		client: client,
		sleep:  defaultSleeper,
		logger: log.WithComponent("lro"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithSleeper replaces the backoff sleep function (tests).
func WithSleeper(s Sleeper) PollerOption {
	return func(p *Poller) { p.sleep = s }
}

// PollUntilTerminal polls an accepted (202) response until the operation
// reaches a terminal state and returns the operation's final result.
//
//   - A non-202 initial response is returned unchanged: nothing to poll.
//   - A 202 without location or operation-id headers is returned unchanged:
//     cannot poll.
//   - Backoff starts at 400ms, doubles per iteration, and caps at 10s.
//   - A transport failure mid-poll aborts the loop and returns the original
//     202 response. This masks the failure as an apparent success; see
//     DESIGN.md for why the behavior is kept.
//   - A Failed operation yields an *OperationError with the operation's own
//     error code and message.
//   - A Succeeded operation triggers one final GET of the location URL and
//     that response is returned; the poll body itself does not embed the
//     final state.
//   - After 600 polls the last poll response is returned without error.
func (p *Poller) PollUntilTerminal(ctx context.Context, initial *Response) (*Response, error) {
	if initial.StatusCode != http.StatusAccepted {
		return initial, nil
	}

	location := initial.Location()
	operationID := initial.OperationID()
	if location == "" || operationID == "" {
		p.logger.Debug("accepted response lacks polling headers, returning as-is")
		return initial, nil
	}

	logger := p.logger.With("operation_id", operationID)
	logger.Debug("polling operation", "location", location)

	wait := lroInitialBackoff
	var last *Response

	for i := 0; i < lroMaxPolls; i++ {
		if err := p.sleep(ctx, wait); err != nil {
			logger.Warn("polling interrupted, returning accepted response", "error", err)
			return initial, nil
		}
		if wait < lroMaxBackoff {
			wait *= 2
			if wait > lroMaxBackoff {
				wait = lroMaxBackoff
			}
		}

		resp, err := p.client.get(ctx, location)
		if err != nil {
			logger.Warn("poll request failed, returning accepted response", "error", err)
			return initial, nil
		}
		last = resp

		if loc := resp.Location(); loc != "" {
			location = loc
		}

		var state OperationState
		if err := resp.DecodeJSON(&state); err != nil {
			logger.Debug("poll body not parseable, continuing", "error", err)
			continue
		}

		switch state.Status {
		case OperationFailed:
			opErr := &OperationError{OperationID: operationID}
			if state.Error != nil {
				opErr.ErrorCode = state.Error.ErrorCode
				opErr.Message = state.Error.Message
			}
			logger.Warn("operation failed", "error_code", opErr.ErrorCode, "message", opErr.Message)
			return nil, opErr

		case OperationSucceeded:
			// The result lives behind the location URL, not in the poll body.
			final, err := p.client.get(ctx, location)
			if err != nil {
				logger.Warn("final result fetch failed, returning accepted response", "error", err)
				return initial, nil
			}
			logger.Debug("operation succeeded", "polls", i+1)
			return final, nil
		}
	}

	logger.Warn("operation still running after poll cap, returning last poll response", "polls", lroMaxPolls)
	return last, nil
}
