package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jdwl-go/jdwl/pkg/config"
	"github.com/jdwl-go/jdwl/pkg/gateway"
	"github.com/jdwl-go/jdwl/pkg/signing"
)

// FakeGateway is an in-process stand-in for the JD router. It checks every envelope's
// signature with the shared secret and answers with the result registered for the method,
// nested under the method's response key.
type FakeGateway struct {
	server    *httptest.Server
	appSecret string

	mu       sync.Mutex
	results  map[string]string
	received []url.Values
}

// NewFakeGateway starts a fake gateway that is closed when the test ends
func NewFakeGateway(t *testing.T, appSecret string) *FakeGateway {
	t.Helper()
	fg := &FakeGateway{
		appSecret: appSecret,
		results:   make(map[string]string),
	}
	fg.server = httptest.NewServer(http.HandlerFunc(fg.handle))
	t.Cleanup(fg.server.Close)
	return fg
}

// SetResult registers the raw JSON returned for method
func (fg *FakeGateway) SetResult(method, resultJSON string) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.results[method] = resultJSON
}

// Received returns the query parameters of every accepted request
func (fg *FakeGateway) Received() []url.Values {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	out := make([]url.Values, len(fg.received))
	copy(out, fg.received)
	return out
}

// HTTPClient returns a client that routes the fixed gateway endpoint to this server
func (fg *FakeGateway) HTTPClient() *http.Client {
	target, _ := url.Parse(fg.server.URL)
	return &http.Client{Transport: &RewriteTransport{Target: target}}
}

func (fg *FakeGateway) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	fields := make(map[string]string, len(q))
	for k := range q {
		fields[k] = q.Get(k)
	}
	if q.Get(config.FieldVersion) != config.ProtocolVersion || signing.SignEnvelope(fields, fg.appSecret) != q.Get(config.FieldSign) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"error_response":{"code":"25","zh_desc":"签名无效","en_desc":"Invalid signature"}}`)
		return
	}

	method := q.Get(config.FieldMethod)
	fg.mu.Lock()
	fg.received = append(fg.received, q)
	result, ok := fg.results[method]
	fg.mu.Unlock()
	if !ok {
		result = "{}"
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{%q:%s}`, gateway.ResponseKey(method), result)
}

// RewriteTransport sends every request to Target, keeping path and query
type RewriteTransport struct {
	Target *url.URL
}

func (rt *RewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.Target.Scheme
	out.URL.Host = rt.Target.Host
	out.Host = rt.Target.Host
	return http.DefaultTransport.RoundTrip(out)
}
