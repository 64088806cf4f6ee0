// Package commands implements the gores subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/willibrandon/gores/bundle"
	"github.com/willibrandon/gores/cmd/gores/cli"
	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/config"
	"github.com/willibrandon/gores/loader"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/resources"
)

const defaultConfig = "predefined:default"

// source names where resources come from: a bundle, or a configuration
// plus declaration files.
type source struct {
	configPath    string
	resourcePaths []string
	bundlePath    string
	defaultType   string
}

func (s *source) validate() error {
	if s.bundlePath != "" && len(s.resourcePaths) > 0 {
		return fmt.Errorf("--bundle and --resources are mutually exclusive")
	}
	if s.bundlePath == "" && len(s.resourcePaths) == 0 {
		return fmt.Errorf("one of --bundle or --resources is required")
	}
	return nil
}

func logger() observability.Logger {
	l, err := cli.Logger()
	if err != nil {
		return observability.NewNullLogger()
	}
	return l
}

// load returns the configuration declaration and a manager holding every
// resource of s. Declaration errors are aggregated; the manager is returned
// with whatever loaded.
func (s *source) load(ctx context.Context) (config.Decl, *resources.Manager, error) {
	if s.bundlePath != "" {
		return s.loadBundle(ctx)
	}

	sc, err := config.LoadFile(s.configPath)
	if err != nil {
		return config.Decl{}, nil, fmt.Errorf("load config %s: %w", s.configPath, err)
	}
	m, err := resources.NewManager(resources.ManagerParams{
		Qualifiers:              sc.Qualifiers(),
		ResourceTypes:           sc.ResourceTypes(),
		DefaultResourceTypeName: s.defaultType,
		Logger:                  logger(),
	})
	if err != nil {
		return config.Decl{}, nil, err
	}

	var agg common.Aggregate
	for _, path := range s.resourcePaths {
		var decl resources.CollectionDecl
		if err := loader.DecodeFile(path, &decl); err != nil {
			agg.Add(fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := m.AddCollection(decl); err != nil {
			agg.Add(fmt.Errorf("%s: %w", path, err))
		}
	}
	return sc.Decl(), m, agg.Err()
}

func (s *source) loadBundle(ctx context.Context) (config.Decl, *resources.Manager, error) {
	data, err := os.ReadFile(s.bundlePath)
	if err != nil {
		return config.Decl{}, nil, err
	}
	b, m, err := bundle.Load(ctx, data, bundle.LoadOptions{Logger: logger(), DefaultResourceTypeName: s.defaultType})
	if err != nil {
		return config.Decl{}, nil, fmt.Errorf("%s: %w", s.bundlePath, err)
	}
	return b.Config, m, nil
}

// parseContext parses name=value flag values. A single flag value may hold
// several pairs separated by ';'. Values keep their commas, so a context
// list such as language=fr,de survives.
func parseContext(values []string) (map[string]string, error) {
	ctx := make(map[string]string)
	for _, v := range values {
		for _, pair := range strings.Split(v, ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			name, value, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("invalid context value %q, want name=value", pair)
			}
			name = strings.TrimSpace(name)
			if _, dup := ctx[name]; dup {
				return nil, fmt.Errorf("context value %q given twice", name)
			}
			ctx[name] = strings.TrimSpace(value)
		}
	}
	return ctx, nil
}

// errorStrings flattens an aggregate error for JSON output.
func errorStrings(err error) []string {
	if err == nil {
		return []string{}
	}
	var out []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, errorStrings(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
