package fabric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mattjoyce/fabctl/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lroFixture scripts an operation endpoint: running Running responses, then
// Succeeded pointing at a result URL.
type lroFixture struct {
	server    *httptest.Server
	polls     atomic.Int64
	running   int64
	resultGot atomic.Int64
}

func newLROFixture(t *testing.T, running int64) *lroFixture {
	t.Helper()

	f := &lroFixture{running: running}
	mux := http.NewServeMux()

	mux.HandleFunc("/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		n := f.polls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if f.running < 0 || n <= f.running {
			_ = json.NewEncoder(w).Encode(OperationState{Status: OperationRunning})
			return
		}
		w.Header().Set("Location", f.server.URL+"/operations/op-1/result")
		_ = json.NewEncoder(w).Encode(OperationState{Status: OperationSucceeded})
	})
	mux.HandleFunc("/operations/op-1/result", func(w http.ResponseWriter, r *http.Request) {
		f.resultGot.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"item-1","displayName":"Final"}`))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *lroFixture) accepted() *Response {
	h := http.Header{}
	h.Set("Location", f.server.URL+"/operations/op-1")
	h.Set("x-ms-operation-id", "op-1")
	return &Response{StatusCode: http.StatusAccepted, Header: h}
}

func noSleep(recorded *[]time.Duration) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		if recorded != nil {
			*recorded = append(*recorded, d)
		}
		return nil
	}
}

func TestPollUntilTerminalPassesThroughNonAccepted(t *testing.T) {
	t.Parallel()

	client := New("http://unreachable.invalid", auth.StaticToken("t"))
	poller := NewPoller(client, WithSleeper(noSleep(nil)))

	initial := &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(`{}`)}
	final, err := poller.PollUntilTerminal(context.Background(), initial)
	require.NoError(t, err)
	assert.Same(t, initial, final)
}

func TestPollUntilTerminalRequiresPollingHeaders(t *testing.T) {
	t.Parallel()

	client := New("http://unreachable.invalid", auth.StaticToken("t"))
	poller := NewPoller(client, WithSleeper(noSleep(nil)))

	initial := &Response{StatusCode: http.StatusAccepted, Header: http.Header{}}
	final, err := poller.PollUntilTerminal(context.Background(), initial)
	require.NoError(t, err)
	assert.Same(t, initial, final)
}

func TestPollUntilTerminalBackoffSchedule(t *testing.T) {
	t.Parallel()

	f := newLROFixture(t, 7)
	client := New(f.server.URL, auth.StaticToken("t"))

	var sleeps []time.Duration
	poller := NewPoller(client, WithSleeper(noSleep(&sleeps)))

	_, err := poller.PollUntilTerminal(context.Background(), f.accepted())
	require.NoError(t, err)

	// k-th sleep is min(400ms * 2^(k-1), 10s).
	want := []time.Duration{
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		6400 * time.Millisecond,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	assert.Equal(t, want, sleeps)
}

func TestPollUntilTerminalFetchesFinalResult(t *testing.T) {
	t.Parallel()

	f := newLROFixture(t, 2)
	client := New(f.server.URL, auth.StaticToken("t"))
	poller := NewPoller(client, WithSleeper(noSleep(nil)))

	final, err := poller.PollUntilTerminal(context.Background(), f.accepted())
	require.NoError(t, err)

	// The returned response is the result fetch, not the Succeeded poll body.
	var item Item
	require.NoError(t, final.DecodeJSON(&item))
	assert.Equal(t, "item-1", item.ID)
	assert.EqualValues(t, 1, f.resultGot.Load())
	assert.EqualValues(t, 3, f.polls.Load())
}

func TestPollUntilTerminalStopsAtPollCap(t *testing.T) {
	t.Parallel()

	f := newLROFixture(t, -1) // never leaves Running
	client := New(f.server.URL, auth.StaticToken("t"))
	poller := NewPoller(client, WithSleeper(noSleep(nil)))

	final, err := poller.PollUntilTerminal(context.Background(), f.accepted())
	require.NoError(t, err)
	require.NotNil(t, final)

	assert.EqualValues(t, 600, f.polls.Load())

	var state OperationState
	require.NoError(t, final.DecodeJSON(&state))
	assert.Equal(t, OperationRunning, state.Status)
}

func TestPollUntilTerminalFallsBackOnTransportFailure(t *testing.T) {
	t.Parallel()

	f := newLROFixture(t, 5)
	client := New(f.server.URL, auth.StaticToken("t"))
	poller := NewPoller(client, WithSleeper(noSleep(nil)))

	initial := f.accepted()
	f.server.Close() // every poll now fails at the transport level

	final, err := poller.PollUntilTerminal(context.Background(), initial)
	require.NoError(t, err)
	assert.Same(t, initial, final, "transport failure mid-poll returns the original 202")
}

func TestPollUntilTerminalReportsOperationFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/operations/op-2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(OperationState{
			Status: OperationFailed,
			Error:  &OperationErrorDetail{ErrorCode: "ItemCreationFailed", Message: "boom"},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New(server.URL, auth.StaticToken("t"))
	poller := NewPoller(client, WithSleeper(noSleep(nil)))

	h := http.Header{}
	h.Set("Location", server.URL+"/operations/op-2")
	h.Set("x-ms-operation-id", "op-2")
	initial := &Response{StatusCode: http.StatusAccepted, Header: h}

	_, err := poller.PollUntilTerminal(context.Background(), initial)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "op-2", opErr.OperationID)
	assert.Equal(t, "ItemCreationFailed", opErr.ErrorCode)
	assert.Equal(t, "boom", opErr.Message)
}
