package main

import (
	"context"
	"fmt"

	"github.com/bertob/marker/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML, after the config
// file, MARKER_* variables and flags have been merged.
func runConfig(_ context.Context, args []string, env *Environment) error {
	f, positional, err := parseFlags("config", args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: config takes no arguments", ErrUsage)
	}

	cfg, err := loadSettings(f, env)
	if err != nil {
		return err
	}
	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}
