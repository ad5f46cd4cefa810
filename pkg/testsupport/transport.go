package testsupport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/goliatone/go-formpipe/pkg/transport"
)

// Reply is a scripted response. When Err is set the call fails without a
// response.
type Reply struct {
	Status int
	Body   string
	Header http.Header
	Err    error
}

// JSONReply encodes value as the body of a reply.
func JSONReply(status int, value any) Reply {
	data, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	return Reply{Status: status, Body: string(data)}
}

// Call is a recorded request.
type Call struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Decode unmarshals the recorded body into a generic map.
func (c Call) Decode(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(c.Body, &out); err != nil {
		t.Fatalf("decode call body %s %s: %v", c.Method, c.Path, err)
	}
	return out
}

// Transport is a recording transport.Adapter. Replies are consumed in order;
// once exhausted every call answers 500.
type Transport struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
	// OnCall, if set, runs before the reply is returned.
	OnCall func(Call)
}

// NewTransport scripts the replies for successive calls.
func NewTransport(replies ...Reply) *Transport {
	return &Transport{replies: append([]Reply(nil), replies...)}
}

var _ transport.Adapter = (*Transport)(nil)

// Do records the call and returns the next scripted reply.
func (f *Transport) Do(ctx context.Context, req transport.Request) (transport.Response, error) {
	call := Call{
		Method: req.Method,
		Path:   req.Path,
		Header: req.Header.Clone(),
		Body:   append([]byte(nil), req.Body...),
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply := Reply{Status: http.StatusInternalServerError, Body: `{"detail":"unscripted call"}`}
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	hook := f.OnCall
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err := ctx.Err(); err != nil {
		return transport.Response{}, err
	}
	if reply.Err != nil {
		return transport.Response{}, reply.Err
	}
	return transport.Response{Status: reply.Status, Header: reply.Header, Body: []byte(reply.Body)}, nil
}

// Calls returns the recorded calls in order.
func (f *Transport) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Paths returns "METHOD path" for every recorded call.
func (f *Transport) Paths() []string {
	calls := f.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}
