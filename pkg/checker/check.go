package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nxtcoder17/isserverup/pkg/probe"
)

var ErrTooFewServers = errors.New("at least one server and a reference server are required")

// SplitServers treats the last argument as the reference server and
// everything before it as targets, in order.
func SplitServers(args []string) (targets []string, reference string, err error) {
	if len(args) < 2 {
		return nil, "", fmt.Errorf("%w, got %d argument(s)", ErrTooFewServers, len(args))
	}
	return args[:len(args)-1], args[len(args)-1], nil
}

func Usage(w io.Writer, program string) {
	fmt.Fprintf(w, "Incorrect number of parameters.\n\n")
	fmt.Fprintf(w, "Usage: %s [flags] server1 [server2 server3 serverX...] ref_server\n\n", program)
	fmt.Fprintf(w, "Example: %s domain1.com domain2.com www.google.co.uk\n\n", program)
	fmt.Fprintf(w, "www.google.co.uk is checked first, to find out whether the network is up.\n")
	fmt.Fprintf(w, "If it is, domain1.com and domain2.com are checked, each must return a 200.\n")
}

type Options struct {
	Logger *slog.Logger

	// Insecure skips TLS certificate verification on every check
	Insecure bool

	DetailedExitCodes bool
}

// Check runs a single pass over args (targets followed by the reference
// server) and returns the process exit code.
func Check(ctx context.Context, stdout, stderr io.Writer, program string, args []string, opts Options) int {
	targets, reference, err := SplitServers(args)
	if err != nil {
		Usage(stdout, program)
		return ExitUsage
	}

	c := NewChecker(CheckerArgs{
		Logger: opts.Logger,
		Prober: probe.NewProber(probe.ProberArgs{Logger: opts.Logger, Insecure: opts.Insecure}),
		Stderr: stderr,
	})

	return c.Run(ctx, targets, reference).ExitCode(opts.DetailedExitCodes)
}
