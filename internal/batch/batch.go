package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jdwl-go/jdwl/pkg/procedures"
)

const (
	DefaultConcurrency = 4
	maxLineBytes       = 4 << 20
)

// Call is one line of a batch file: {"method":"jingdong.ldop.waybill.query","payload":{...}}
type Call struct {
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Result struct {
	Index  int             `json:"index"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Config struct {
	Concurrency int
	// QPS paces call starts; zero means unlimited
	QPS    float64
	Logger *zap.Logger
}

// Runner issues batches of calls concurrently. Pacing is applied here, on the caller's side of the gateway client.
type Runner struct {
	caller      procedures.Caller
	concurrency int
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func NewRunner(caller procedures.Caller, cfg *Config) (*Runner, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.QPS < 0 {
		return nil, fmt.Errorf("qps cannot be negative")
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	limit := rate.Inf
	burst := 0
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
		burst = 1
	}

	return &Runner{
		caller:      caller,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      cfg.Logger,
	}, nil
}

// ReadCalls parses one Call per non-blank line.
func ReadCalls(r io.Reader) ([]Call, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var calls []Call
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var call Call
		if err := json.Unmarshal([]byte(line), &call); err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", lineNo, err)
		}
		if call.Method == "" {
			return nil, fmt.Errorf("line %d: method is required", lineNo)
		}
		calls = append(calls, call)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calls: %w", err)
	}
	return calls, nil
}

// Run issues every call and returns one Result per call, in input order.
// A failed call is recorded in its Result; Run itself only fails when ctx ends.
func (r *Runner) Run(ctx context.Context, calls []Call) ([]Result, error) {
	results := make([]Result, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, call := range calls {
		i, call := i, call // per-iteration copy (go < 1.22 loop semantics)
		results[i] = Result{Index: i, Method: call.Method}
		g.Go(func() error {
			if err := r.limiter.Wait(gctx); err != nil {
				return err
			}

			var payload any
			if len(call.Payload) > 0 {
				payload = call.Payload
			}
			res, err := r.caller.Call(gctx, call.Method, payload)
			if err != nil {
				r.logger.Sugar().Warnw("Batch call failed", "index", i, "method", call.Method, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}

	r.logger.Sugar().Infow("Batch complete", "calls", len(calls), "failed", countFailed(results))
	return results, nil
}

func countFailed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Error != "" {
			n++
		}
	}
	return n
}
