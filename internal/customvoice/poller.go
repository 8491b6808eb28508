package customvoice

import (
	"context"
	"strings"
	"time"
)

// Polling defaults. Voice training usually settles well inside five minutes.
const (
	DefaultPollTimeout  = 300 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// WaitForOperation polls a long-running operation until it reaches a terminal
// status or the wall-clock timeout elapses. A zero or negative timeout fails
// immediately without issuing a request.
//
// A failed GetOperation call is propagated untouched; only a non-terminal
// status keeps the loop going. The loop sleeps for interval between polls, so
// callers should run it off the interactive path.
func (c *Client) WaitForOperation(
	ctx context.Context,
	creds Credentials,
	operationID string,
	timeout, interval time.Duration,
) WaitResult {
	var result WaitResult

	missing := creds.missingFields()
	if strings.TrimSpace(operationID) == "" {
		missing = append(missing, "operation_id")
	}

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	// A non-positive timeout is honored as "already expired" rather than
	// defaulted: callers wanting the default pass DefaultPollTimeout.
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	result.OperationID = operationID
	started := time.Now()

	for {
		if time.Since(started) >= timeout {
			result.Envelope = failure("timed out waiting for operation " + operationID)

			return result
		}

		opResult := c.GetOperation(ctx, creds, operationID)
		if !opResult.OK {
			result.Envelope = opResult.Envelope

			return result
		}

		if opResult.Operation.Status.Terminal() {
			result.Envelope = okEnvelope(opResult.StatusCode)
			result.Status = opResult.Operation.Status
			result.Operation = opResult.Operation

			return result
		}

		select {
		case <-ctx.Done():
			result.Envelope = failure(
				"canceled while waiting for operation " + operationID + ": " + ctx.Err().Error(),
			)

			return result
		case <-time.After(interval):
		}
	}
}
