package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jdwl-go/jdwl/pkg/gateway"
	"github.com/jdwl-go/jdwl/pkg/testutil"
	"github.com/jdwl-go/jdwl/pkg/transportSigner/inMemoryTransportSigner"
)

type fakeCaller struct {
	mu       sync.Mutex
	payloads map[string]any
	inFlight int32
	peak     int32
	delay    time.Duration
}

func (f *fakeCaller) Call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	f.mu.Lock()
	if f.payloads == nil {
		f.payloads = make(map[string]any)
	}
	f.payloads[method] = payload
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if strings.HasSuffix(method, ".fail") {
		return nil, fmt.Errorf("remote said no")
	}
	return json.RawMessage(fmt.Sprintf(`{"method":%q}`, method)), nil
}

func TestNewRunner_ValidationErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name        string
		caller      *fakeCaller
		config      *Config
		expectedErr string
	}{
		{name: "nil caller", caller: nil, config: &Config{Logger: logger}, expectedErr: "caller is required"},
		{name: "nil config", caller: &fakeCaller{}, config: nil, expectedErr: "config cannot be nil"},
		{name: "nil logger", caller: &fakeCaller{}, config: &Config{}, expectedErr: "logger is required"},
		{name: "negative qps", caller: &fakeCaller{}, config: &Config{Logger: logger, QPS: -1}, expectedErr: "qps cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r *Runner
			var err error
			if tt.caller == nil {
				r, err = NewRunner(nil, tt.config)
			} else {
				r, err = NewRunner(tt.caller, tt.config)
			}
			assert.Nil(t, r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestReadCalls(t *testing.T) {
	input := `
{"method":"jingdong.ldop.waybill.query","payload":{"deliveryId":"VA1"}}

{"method":"jingdong.etms.waybillcode.get"}
`
	calls, err := ReadCalls(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "jingdong.ldop.waybill.query", calls[0].Method)
	assert.JSONEq(t, `{"deliveryId":"VA1"}`, string(calls[0].Payload))
	assert.Empty(t, calls[1].Payload)
}

func TestReadCalls_Errors(t *testing.T) {
	_, err := ReadCalls(strings.NewReader("{\"method\":\"a.b\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadCalls(strings.NewReader(`{"payload":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method is required")
}

func TestRun_PreservesOrderAndRecordsFailures(t *testing.T) {
	caller := &fakeCaller{delay: 5 * time.Millisecond}
	r, err := NewRunner(caller, &Config{Concurrency: 3, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	calls := make([]Call, 0, 12)
	for i := 0; i < 12; i++ {
		method := fmt.Sprintf("jingdong.test.m%d", i)
		if i%4 == 0 {
			method += ".fail"
		}
		calls = append(calls, Call{Method: method})
	}

	results, err := r.Run(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, len(calls))

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, calls[i].Method, res.Method)
		if i%4 == 0 {
			assert.Equal(t, "remote said no", res.Error)
			assert.Nil(t, res.Result)
		} else {
			assert.Empty(t, res.Error)
			assert.JSONEq(t, fmt.Sprintf(`{"method":%q}`, calls[i].Method), string(res.Result))
		}
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&caller.peak), int32(3))
}

func TestRun_PassesPayloads(t *testing.T) {
	caller := &fakeCaller{}
	r, err := NewRunner(caller, &Config{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []Call{
		{Method: "jingdong.a.with", Payload: json.RawMessage(`{"x":1}`)},
		{Method: "jingdong.a.without"},
	})
	require.NoError(t, err)

	assert.Equal(t, json.RawMessage(`{"x":1}`), caller.payloads["jingdong.a.with"])
	assert.Nil(t, caller.payloads["jingdong.a.without"])
}

func TestRun_PacesWithQPS(t *testing.T) {
	caller := &fakeCaller{}
	r, err := NewRunner(caller, &Config{Concurrency: 10, QPS: 50, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	calls := make([]Call, 6)
	for i := range calls {
		calls[i] = Call{Method: "jingdong.a.b"}
	}

	start := time.Now()
	_, err = r.Run(context.Background(), calls)
	require.NoError(t, err)

	// burst of one then 20ms per call
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRun_ContextCancelled(t *testing.T) {
	caller := &fakeCaller{}
	r, err := NewRunner(caller, &Config{Concurrency: 1, QPS: 1, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := []Call{{Method: "jingdong.a.b"}, {Method: "jingdong.a.c"}, {Method: "jingdong.a.d"}}
	_, err = r.Run(ctx, calls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch interrupted")
}

func TestRun_AgainstFakeGateway(t *testing.T) {
	logger := zaptest.NewLogger(t)
	fg := testutil.NewFakeGateway(t, "S3CRET")
	fg.SetResult("jingdong.ldop.waybill.query", `{"status":"ok"}`)

	signer, err := inMemoryTransportSigner.NewMD5InMemoryTransportSigner("S3CRET", logger)
	require.NoError(t, err)
	client, err := gateway.NewClient(&gateway.ClientConfig{
		AppKey:      "K1",
		AccessToken: "T1",
		Signer:      signer,
		Logger:      logger,
		HTTPClient:  fg.HTTPClient(),
	})
	require.NoError(t, err)

	calls, err := ReadCalls(strings.NewReader(`{"method":"jingdong.ldop.waybill.query","payload":{"deliveryId":"VA1"}}
{"method":"jingdong.etms.range.check"}
{"method":"not-a-procedure"}
`))
	require.NoError(t, err)

	r, err := NewRunner(client, &Config{Concurrency: 2, Logger: logger})
	require.NoError(t, err)

	results, err := r.Run(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.JSONEq(t, `{"status":"ok"}`, string(results[0].Result))
	assert.JSONEq(t, `{}`, string(results[1].Result))
	assert.Contains(t, results[2].Error, "invalid procedure name")
	assert.Len(t, fg.Received(), 2)
}
