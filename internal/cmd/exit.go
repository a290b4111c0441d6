package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrelhq/kestrel/pkg/jobs"
	"github.com/kestrelhq/kestrel/pkg/splunkd"
)

// Exit codes, one per failure kind, so scripts and agents can branch
// without parsing messages.
const (
	exitGeneral     = 1
	exitAuth        = 2
	exitForbidden   = 3
	exitNotFound    = 4
	exitRateLimited = 5
	exitServer      = 7
	exitJobFailed   = 8
	exitPollTimeout = 9
	exitBadResponse = 10
	exitInterrupted = 130
)

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case splunkd.IsUnauthorized(err):
		return exitAuth
	case splunkd.IsForbidden(err):
		return exitForbidden
	case splunkd.IsNotFound(err):
		return exitNotFound
	case splunkd.IsRateLimited(err):
		return exitRateLimited
	case splunkd.IsServer(err):
		return exitServer
	case jobs.IsJobFailed(err):
		return exitJobFailed
	case jobs.IsPollTimeout(err):
		return exitPollTimeout
	case jobs.IsMalformedStatus(err):
		return exitBadResponse
	default:
		return exitGeneral
	}
}

// errorMessage prefixes the message with the failure kind so the terminal
// line alone tells the caller which case they hit.
func errorMessage(err error) string {
	switch {
	case splunkd.IsUnauthorized(err):
		return fmt.Sprintf("authentication failed: %v", err)
	case splunkd.IsForbidden(err):
		return fmt.Sprintf("authorization denied: %v", err)
	case splunkd.IsNotFound(err):
		return fmt.Sprintf("not found: %v", err)
	case splunkd.IsRateLimited(err):
		return fmt.Sprintf("rate limit exceeded: %v", err)
	case splunkd.IsServer(err):
		return fmt.Sprintf("server error: %v", err)
	case jobs.IsJobFailed(err):
		return err.Error()
	case jobs.IsPollTimeout(err):
		return fmt.Sprintf("%v (the job may still complete; retry the poll or raise --timeout)", err)
	default:
		return err.Error()
	}
}
