package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
	"github.com/abdul-hamid-achik/colrun/packages/http"
	"github.com/abdul-hamid-achik/colrun/packages/script"
	"github.com/abdul-hamid-achik/colrun/packages/store"
)

// environmentFlags select the environment a run starts from.
type environmentFlags struct {
	file      string
	dotenv    string
	storeName string
	store     string
}

func (f *environmentFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "environment", "e", getEnvString("COLRUN_ENVIRONMENT", ""), "Postman environment file (env: COLRUN_ENVIRONMENT)")
	fs.StringVar(&f.dotenv, "env-file", getEnvString("COLRUN_ENV_FILE", ""), "Path to .env file overlaid on the environment (env: COLRUN_ENV_FILE)")
	fs.StringVar(&f.storeName, "store-env", getEnvString("COLRUN_STORE_ENV", ""), "Load the environment with this name from the store (env: COLRUN_STORE_ENV)")
	fs.StringVar(&f.store, "store", getEnvString("COLRUN_STORE", ""), "Environment store: file path, sqlite:// or postgres:// URL (env: COLRUN_STORE)")
}

func (f *environmentFlags) storePath() string {
	if f.store != "" {
		return f.store
	}
	return cfg.Store
}

// load builds the starting environment. A stored or file environment comes
// first, then the dotenv overlay. Without either, the environment is empty.
func (f *environmentFlags) load(ctx context.Context) (*env.Environment, error) {
	file := f.file
	if file == "" {
		file = cfg.Environment
	}
	dotenv := f.dotenv
	if dotenv == "" {
		dotenv = cfg.EnvFile
	}

	if file != "" && f.storeName != "" {
		return nil, fmt.Errorf("--environment and --store-env are mutually exclusive")
	}

	e := env.New("")
	switch {
	case f.storeName != "":
		s, err := store.Open(f.storePath())
		if err != nil {
			return nil, err
		}
		defer s.Close()
		if e, err = s.LoadEnvironment(ctx, f.storeName); err != nil {
			return nil, fmt.Errorf("loading stored environment %q: %w", f.storeName, err)
		}
	case file != "":
		var err error
		if e, err = env.LoadFile(file); err != nil {
			return nil, err
		}
	}

	if dotenv != "" {
		vars, err := env.LoadDotEnv(dotenv)
		if err != nil {
			return nil, err
		}
		e.Merge(vars)
	}

	logger.Debug("environment loaded", "name", e.Name, "variables", e.Len())
	return e, nil
}

func collectionPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Collection != "" {
		return cfg.Collection, nil
	}
	return "", withExitCode(ExitUsageError, fmt.Errorf("no collection given and none configured"))
}

func loadCollection(path string) (*collection.Collection, error) {
	col, err := collection.Load(path)
	if err != nil {
		return nil, withExitCode(ExitCollectionError, err)
	}
	logger.Debug("collection loaded", "name", col.Info.Name, "items", col.Len())
	return col, nil
}

// newRunner wires the HTTP client and script engine from cfg.
func newRunner(timeout, delay time.Duration) *runner.Runner {
	client := http.NewClient(
		http.WithTimeout(timeout),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithProxy(cfg.Proxy),
		http.WithDefaultHeaders(cfg.Headers),
	)
	engine := script.NewJSEngine(script.WithScriptTimeout(cfg.ScriptTimeoutDuration()))

	return runner.NewRunner(client,
		runner.WithLogger(logger),
		runner.WithEngine(engine),
		runner.WithDelay(delay),
	)
}

// parseSelection turns "0,2,4-6" into indices. Ranges may run backwards.
func parseSelection(s string) ([]int, error) {
	var refs []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange || lo == "" {
			i, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q", part)
			}
			refs = append(refs, i)
			continue
		}

		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		step := 1
		if to < from {
			step = -1
		}
		for i := from; ; i += step {
			refs = append(refs, i)
			if i == to {
				break
			}
		}
	}
	return refs, nil
}

// resolveSelection combines --select indices and --item names, in that
// order. Unknown names become -1 so the run reports them as not found.
// Without either, refs is empty and the caller runs every definition.
func resolveSelection(col *collection.Collection, selection string, names []string) ([]int, error) {
	refs, err := parseSelection(selection)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		i, ok := col.Find(name)
		if !ok {
			logger.Warn("no item with that name", "item", name)
			i = -1
		}
		refs = append(refs, i)
	}
	return refs, nil
}
