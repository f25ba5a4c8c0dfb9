// Package procedures is the flat registry of gateway procedures and the operations bound to them.
//
// Every procedure shares the same mechanism: sign the payload, send it, and unwrap the result under
// the procedure's response key. The registry therefore only records names; Bind turns a name into a
// callable Operation over any Caller.
package procedures

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jdwl-go/jdwl/pkg/gateway"
)

// Caller performs one signed gateway call and returns the unwrapped result. *gateway.Client implements it.
type Caller interface {
	Call(ctx context.Context, method string, payload any) (json.RawMessage, error)
}

var _ Caller = (*gateway.Client)(nil)

// Operation is a procedure bound to a Caller.
type Operation func(ctx context.Context, payload any) (json.RawMessage, error)

type Procedure struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Namespace is the dotted prefix without the final segment, e.g. "jingdong.ldop.waybill".
func (p Procedure) Namespace() string {
	i := strings.LastIndex(p.Name, ".")
	if i < 0 {
		return ""
	}
	return p.Name[:i]
}

// ResponseKey is the top-level key the gateway nests this procedure's result under.
func (p Procedure) ResponseKey() string {
	return gateway.ResponseKey(p.Name)
}

var registry = func() map[string]Procedure {
	m := make(map[string]Procedure, len(catalogue))
	for _, p := range catalogue {
		m[p.Name] = p
	}
	return m
}()

// All returns every registered procedure in catalogue order.
func All() []Procedure {
	out := make([]Procedure, len(catalogue))
	copy(out, catalogue)
	return out
}

func Lookup(name string) (Procedure, bool) {
	p, ok := registry[name]
	return p, ok
}

// Namespaces returns the distinct namespaces, sorted.
func Namespaces() []string {
	seen := make(map[string]struct{})
	for _, p := range catalogue {
		seen[p.Namespace()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Bind returns an Operation calling the named registered procedure through caller.
func Bind(caller Caller, name string) (Operation, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if _, ok := registry[name]; !ok {
		return nil, fmt.Errorf("unknown procedure: %s", name)
	}
	return func(ctx context.Context, payload any) (json.RawMessage, error) {
		return caller.Call(ctx, name, payload)
	}, nil
}

// BindAll binds every registered procedure, keyed by name.
func BindAll(caller Caller) (map[string]Operation, error) {
	ops := make(map[string]Operation, len(catalogue))
	for _, p := range catalogue {
		op, err := Bind(caller, p.Name)
		if err != nil {
			return nil, err
		}
		ops[p.Name] = op
	}
	return ops, nil
}
