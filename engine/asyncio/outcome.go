// Package asyncio provides asynchronous file reads through a completion
// queue. Callers submit reads tagged with an opaque token, then drain the
// results from a single consumer via WaitOutcome.
package asyncio

type Result uint8

const (
	// The read finished and the outcome carries the file payload.
	ResultComplete Result = iota
	// The read failed; Err carries the cause.
	ResultFailure
	// The read was abandoned because the queue shut down.
	ResultCancelled
)

func (r Result) String() string {
	switch r {
	case ResultComplete:
		return "complete"
	case ResultFailure:
		return "failure"
	case ResultCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome is the terminal state of one submitted read. Buffer is only
// populated for ResultComplete and must be released by the consumer.
type Outcome struct {
	Token  uint64
	Result Result
	Buffer *Buffer
	Err    error
}
