package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type procConfig struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	build := []procConfig{
		{
			Name: "build-wasm",
			Args: []string{"go", "build", "-o", "web/main.wasm", "./cmd/shrine-wasm"},
			Env:  []string{"GOOS=js", "GOARCH=wasm"},
		},
		{
			Name: "copy-wasm-exec",
			Args: []string{"sh", "-c", `cp "$(go env GOROOT)/lib/wasm/wasm_exec.js" web/wasm_exec.js`},
		},
	}
	for _, proc := range build {
		if err := runAll(ctx, []procConfig{proc}); err != nil {
			fmt.Fprintf(os.Stderr, "shrine-live build failed: %v\n", err)
			os.Exit(1)
		}
	}

	procs := []procConfig{
		{
			Name: "ui",
			Args: []string{
				"go", "run", "./cmd/shrine-ui",
				"-config", "config.json",
				"-assets", "web",
			},
		},
	}

	if err := runAll(ctx, procs); err != nil {
		fmt.Fprintf(os.Stderr, "shrine-live exited with error: %v\n", err)
		os.Exit(1)
	}
}

// runAll starts every process and waits for them. The first unexpected exit
// cancels the rest.
func runAll(ctx context.Context, procs []procConfig) error {
	if len(procs) == 0 {
		return fmt.Errorf("no processes configured")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, cfg := range procs {
		cfg := cfg
		g.Go(func() error {
			cmd := exec.CommandContext(gctx, cfg.Args[0], cfg.Args[1:]...)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			cmd.WaitDelay = 2 * time.Second
			if cfg.Dir != "" {
				cmd.Dir = cfg.Dir
			}
			if len(cfg.Env) > 0 {
				cmd.Env = append(append([]string{}, os.Environ()...), cfg.Env...)
			}
			if err := cmd.Run(); err != nil {
				// Interrupted by the operator: not a failure.
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s: %w", cfg.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
