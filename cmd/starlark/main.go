package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oarkflow/log"

	"github.com/aifeelit/starlark/pkg/ast"
	"github.com/aifeelit/starlark/pkg/driver"
	"github.com/aifeelit/starlark/pkg/interp"
	"github.com/aifeelit/starlark/pkg/runtime"
)

const cliVersion = "starlark-cli 0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliVersion)
		return 0
	case "run":
		return runManifest(args[1:])
	case "eval":
		return runEval(args[1:])
	default:
		return runEval(args)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(`
usage:
  starlark run [run.yml]          evaluate the modules of a run manifest
  starlark eval [flags] file.json evaluate a single module AST
  starlark version                print the CLI version

eval flags:
  -depth N     maximum call depth (default 1000)
  -steps N     maximum statement steps (0 = unbounded)
  -timeout D   evaluation timeout, e.g. 5s (0 = none)
`))
}

func runManifest(args []string) int {
	logger := &log.DefaultLogger

	path := "run.yml"
	if len(args) > 0 {
		path = args[0]
	}
	manifest, err := driver.LoadManifest(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("load manifest")
		return 1
	}

	cache, err := driver.NewModuleCache(int64(len(manifest.Modules)) + 16)
	if err != nil {
		logger.Error().Err(err).Msg("module cache")
		return 1
	}
	defer cache.Close()

	runner := &driver.Runner{Manifest: manifest, Cache: cache}
	start := time.Now()
	result, err := runner.Run(context.Background())
	if err != nil {
		logger.Error().Err(err).Str("manifest", manifest.Name).Msg("evaluation failed")
		return 1
	}
	logger.Info().
		Str("manifest", manifest.Name).
		Str("entry", manifest.Entry).
		Int("modules", len(result.Modules)).
		Str("elapsed", time.Since(start).String()).
		Msg("evaluation complete")

	printExports(result.Entry)
	return 0
}

func runEval(args []string) int {
	logger := &log.DefaultLogger

	flags := flag.NewFlagSet("eval", flag.ContinueOnError)
	depth := flags.Int("depth", 0, "maximum call depth")
	steps := flags.Int64("steps", 0, "maximum statement steps")
	timeout := flags.Duration("timeout", 0, "evaluation timeout")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "eval requires exactly one module AST file")
		return 1
	}
	path := flags.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("read module")
		return 1
	}
	mod, err := ast.DecodeModule(data)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("decode module")
		return 1
	}
	if mod.Name == "" {
		mod.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	opts := interp.Options{MaxCallDepth: *depth, MaxSteps: *steps}
	start := time.Now()
	frozen, err := interp.Evaluate(ctx, mod, nil, interp.Universe(), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.Info().
		Str("module", frozen.Name()).
		Str("elapsed", time.Since(start).String()).
		Msg("evaluation complete")

	printExports(frozen)
	return 0
}

func printExports(mod *runtime.FrozenModule) {
	for _, name := range mod.Names() {
		if v, ok := mod.Get(name); ok {
			fmt.Fprintf(os.Stdout, "%s = %s\n", name, runtime.Repr(v))
		}
	}
}
