package driver

import (
	"context"
	"fmt"
	"os"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/interp"
	"github.com/aifeelit/starlark/pkg/runtime"
)

// Runner evaluates manifest modules in order, feeding earlier results to
// later load() statements through the module cache.
type Runner struct {
	Manifest *Manifest
	Cache    *ModuleCache

	// Builtins defaults to interp.Universe when nil.
	Builtins map[string]runtime.Value

	// Globals are predeclared names injected into every module.
	Globals map[string]runtime.Value

	// Hook, when set, observes each module evaluation.
	Hook interp.DebugHook
}

// Result is the outcome of one run: the entry module's frozen exports.
type Result struct {
	Entry   *runtime.FrozenModule
	Modules map[string]*runtime.FrozenModule
}

// Run evaluates every manifest module in listed order and returns the
// entry module's exports. Modules already present in the cache are reused
// without re-evaluation.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Manifest == nil {
		return nil, fmt.Errorf("driver: no manifest")
	}
	builtins := r.Builtins
	if builtins == nil {
		builtins = interp.Universe()
	}

	if r.Manifest.Limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Manifest.Limits.Timeout)
		defer cancel()
	}

	evaluated := make(map[string]*runtime.FrozenModule, len(r.Manifest.Modules))
	for _, spec := range r.Manifest.Modules {
		mod, err := r.evalModule(ctx, spec, builtins, evaluated)
		if err != nil {
			return nil, fmt.Errorf("driver: module %q: %w", spec.Name, err)
		}
		evaluated[spec.Name] = mod
	}

	entry, ok := evaluated[r.Manifest.Entry]
	if !ok {
		return nil, fmt.Errorf("driver: entry module %q was not evaluated", r.Manifest.Entry)
	}
	return &Result{Entry: entry, Modules: evaluated}, nil
}

func (r *Runner) evalModule(ctx context.Context, spec *ModuleSpec, builtins map[string]runtime.Value, evaluated map[string]*runtime.FrozenModule) (*runtime.FrozenModule, error) {
	compute := func() (*runtime.FrozenModule, error) {
		data, err := os.ReadFile(r.Manifest.ModuleFile(spec))
		if err != nil {
			return nil, err
		}
		mod, err := ast.DecodeModule(data)
		if err != nil {
			return nil, err
		}
		if mod.Name == "" {
			mod.Name = spec.Name
		}
		opts := interp.Options{
			MaxCallDepth: r.Manifest.Limits.MaxCallDepth,
			MaxSteps:     r.Manifest.Limits.MaxSteps,
			Modules:      evaluated,
			Hook:         r.Hook,
		}
		return interp.Evaluate(ctx, mod, r.Globals, builtins, opts)
	}
	if r.Cache == nil {
		return compute()
	}
	return r.Cache.LoadOrCompute(spec.Name, compute)
}
