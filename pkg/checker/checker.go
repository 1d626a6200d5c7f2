package checker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nxtcoder17/isserverup/pkg/probe"
)

// Prober performs a single status check
type Prober interface {
	Probe(ctx context.Context, rawURL string) probe.Result
}

var _ Prober = (*probe.Prober)(nil)

// Report is the outcome of one checking pass
type Report struct {
	Reference probe.Result
	// Aborted is set when the reference server could not be reached, no
	// target is contacted in that case
	Aborted bool
	// Interrupted is set when the pass was cut short by ctx, its results say
	// nothing about the servers
	Interrupted bool
	Targets     []probe.Result
}

// Passed is true iff every target returned exactly 200.
func (r Report) Passed() bool {
	if r.Aborted || r.Interrupted {
		return false
	}

	passed := true
	for i := range r.Targets {
		if !r.Targets[i].OK() {
			passed = false
		}
	}
	return passed
}

type Checker struct {
	logger *slog.Logger
	prober Prober
	stderr io.Writer
	banner *banner
}

type CheckerArgs struct {
	Logger *slog.Logger
	Prober Prober

	// Stderr receives per-check diagnostics and the final banner
	Stderr io.Writer
}

func NewChecker(args CheckerArgs) *Checker {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	if args.Stderr == nil {
		args.Stderr = os.Stderr
	}

	if args.Prober == nil {
		args.Prober = probe.NewProber(probe.ProberArgs{Logger: args.Logger})
	}

	return &Checker{
		logger: args.Logger.With("component", "checker"),
		prober: args.Prober,
		stderr: args.Stderr,
		banner: newBanner(args.Stderr),
	}
}

// CheckReference probes the reference server once. Any HTTP response counts
// as a working network, only a transport failure marks it unreliable.
func (c *Checker) CheckReference(ctx context.Context, reference string) (res probe.Result, unreliable bool) {
	res = c.prober.Probe(ctx, reference)
	fmt.Fprintf(c.stderr, "\nReference server response code: %d\n\n", res.StatusCode)

	if res.Err != nil {
		fmt.Fprintf(c.stderr, "ERROR for reference server: %s\n", reference)
		fmt.Fprintf(c.stderr, "reference server error: %v\n", res.Err)
		return res, true
	}

	return res, false
}

// CheckServers probes every target in order, it never stops at the first
// failure. passed is true iff all of them returned 200.
func (c *Checker) CheckServers(ctx context.Context, targets []string) (results []probe.Result, passed bool) {
	passed = true
	results = make([]probe.Result, 0, len(targets))

	for i, target := range targets {
		res := c.prober.Probe(ctx, target)
		results = append(results, res)

		fmt.Fprintf(c.stderr, "Check %d: (%d) %s\n", i+1, res.StatusCode, target)
		if res.Err != nil {
			fmt.Fprintf(c.stderr, "Check %d error: %v\n", i+1, res.Err)
		}

		if !res.OK() {
			passed = false
		}
	}

	return results, passed
}

// Run executes one full pass, the reference first and then every target.
func (c *Checker) Run(ctx context.Context, targets []string, reference string) Report {
	start := time.Now()
	var report Report

	var unreliable bool
	report.Reference, unreliable = c.CheckReference(ctx, reference)
	if unreliable && ctx.Err() != nil {
		report.Aborted = true
		report.Interrupted = true
		c.banner.Interrupted()
		c.logger.Debug("pass interrupted", "reference", reference, "err", ctx.Err())
		return report
	}

	if unreliable {
		report.Aborted = true
		c.banner.Abort()
		c.logger.Debug("pass aborted", "reference", reference)
		return report
	}

	var passed bool
	report.Targets, passed = c.CheckServers(ctx, targets)
	switch {
	case ctx.Err() != nil:
		report.Interrupted = true
		c.banner.Interrupted()
	case passed:
		c.banner.Passed()
	default:
		c.banner.Failed()
	}

	failed := 0
	for i := range report.Targets {
		if !report.Targets[i].OK() {
			failed++
		}
	}

	c.logger.Debug("pass finished",
		"targets", len(report.Targets),
		"failed", failed,
		"took", fmt.Sprintf("%sms", humanize.Comma(time.Since(start).Milliseconds())),
	)

	return report
}
