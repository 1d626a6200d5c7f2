package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nxtcoder17/isserverup/pkg/checker"
	"github.com/nxtcoder17/isserverup/pkg/executor"
	"github.com/nxtcoder17/isserverup/pkg/logging"
	"github.com/nxtcoder17/isserverup/pkg/probe"
	"github.com/nxtcoder17/isserverup/pkg/watcher"
	"github.com/urfave/cli/v3"
)

var (
	ProgramName = "isserverup"
	Version     string
)

func main() {
	exitCode := checker.ExitPassed

	cmd := &cli.Command{
		Name:                   ProgramName,
		UseShortOptionHandling: true,
		Usage:                  "checks that servers answer with a 200, after making sure the network is up",
		ArgsUsage:              "server1 [server2 ... serverN] reference_server",
		Version:                Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "show debug logs (timings, sizes, redirects)",
			},

			&cli.BoolFlag{
				Name:  "trace",
				Usage: "show trace logs, includes every redirect hop",
			},

			&cli.BoolFlag{
				Name:    "insecure",
				Usage:   "skip TLS certificate verification",
				Aliases: []string{"k"},
			},

			&cli.BoolFlag{
				Name:  "detailed-exit-codes",
				Usage: "exit with a bit mask: 1 (non-200 status), 2 (transport error or unreachable reference), 4 (unknown error)",
			},

			&cli.StringSliceFlag{
				Name:    "watch",
				Usage:   "[dir] (to watch) | -[dir] (to ignore), re-checks on every change",
				Aliases: []string{"w"},
			},

			&cli.StringSliceFlag{
				Name:    "ext",
				Usage:   "[ext] (to watch) | -[ext] (to ignore)",
				Aliases: []string{"e"},
			},

			&cli.DurationFlag{
				Name:  "cooldown",
				Usage: "minimum time between two watch triggered re-checks",
				Value: watcher.DefaultCooldown,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.New(logging.Options{
				Writer:        os.Stderr,
				Prefix:        ProgramName,
				ShowCaller:    c.Bool("debug") || c.Bool("trace"),
				ShowDebugLogs: c.Bool("debug"),
				ShowTraceLogs: c.Bool("trace"),
			})

			if c.Bool("insecure") {
				logger.Warn("TLS certificate verification is disabled")
			}

			opts := checker.Options{
				Logger:            logger,
				Insecure:          c.Bool("insecure"),
				DetailedExitCodes: c.Bool("detailed-exit-codes"),
			}

			if len(c.StringSlice("watch")) == 0 {
				exitCode = checker.Check(ctx, os.Stdout, os.Stderr, ProgramName, c.Args().Slice(), opts)
				return nil
			}

			targets, reference, err := checker.SplitServers(c.Args().Slice())
			if err != nil {
				checker.Usage(os.Stdout, ProgramName)
				exitCode = checker.ExitUsage
				return nil
			}

			exitCode, err = watchAndCheck(ctx, c, logger, opts, targets, reference)
			if err != nil {
				logger.Error("watch mode failed", "err", err)
				exitCode = checker.ExitUnknownError
			}
			return nil
		},
	}

	ctx, stop := signal.NotifyContext(context.TODO(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(checker.ExitUsage)
	}

	stop()
	os.Exit(exitCode)
}

func watchAndCheck(ctx context.Context, c *cli.Command, logger *slog.Logger, opts checker.Options, targets []string, reference string) (int, error) {
	cooldown := c.Duration("cooldown")

	w, err := watcher.NewWatcher(watcher.WatcherArgs{
		Logger:           logger,
		WatchDirs:        c.StringSlice("watch"),
		WatchExtensions:  c.StringSlice("ext"),
		IgnoreList:       watcher.DefaultIgnoreList,
		CooldownDuration: &cooldown,
	})
	if err != nil {
		return 0, err
	}

	chk := checker.NewChecker(checker.CheckerArgs{
		Logger: logger,
		Prober: probe.NewProber(probe.ProberArgs{Logger: logger, Insecure: opts.Insecure}),
		Stderr: os.Stderr,
	})

	ex := executor.NewCheckExecutor(ctx, executor.CheckExecutorArgs{
		Logger: logger,
		Run: func(ctx context.Context) int {
			return chk.Run(ctx, targets, reference).ExitCode(opts.DetailedExitCodes)
		},
	})

	if err := w.WatchAndExecute(ctx, []executor.Executor{ex}); err != nil {
		return 0, err
	}

	return ex.ExitCode(), nil
}
