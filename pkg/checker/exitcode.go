package checker

import (
	"errors"

	"github.com/nxtcoder17/isserverup/pkg/probe"
)

const (
	ExitPassed = 0
	ExitFailed = 1
	ExitUsage  = 1

	// ExitReferenceFailure shares its value with ExitPassed, a calling script
	// can not tell an aborted run from a passing one without
	// --detailed-exit-codes
	ExitReferenceFailure = 0

	// ExitInterrupted follows the shell convention for SIGINT, it is used in
	// both exit code modes
	ExitInterrupted = 130
)

// bits used with --detailed-exit-codes, OR-ed together
const (
	ExitUndefinedHTTPCode = 1 << iota
	ExitTransportError
	ExitUnknownError
)

// ExitCode maps a report onto a process exit status.
func (r Report) ExitCode(detailed bool) int {
	if r.Interrupted {
		return ExitInterrupted
	}

	if !detailed {
		switch {
		case r.Aborted:
			return ExitReferenceFailure
		case r.Passed():
			return ExitPassed
		default:
			return ExitFailed
		}
	}

	if r.Aborted {
		return exitBitFor(r.Reference)
	}

	code := 0
	for _, t := range r.Targets {
		code |= exitBitFor(t)
	}
	return code
}

func exitBitFor(res probe.Result) int {
	if res.OK() {
		return 0
	}

	if res.Err == nil {
		return ExitUndefinedHTTPCode
	}

	var terr *probe.TransportError
	if errors.As(res.Err, &terr) && terr.Kind == probe.KindURL {
		return ExitUnknownError
	}
	return ExitTransportError
}
