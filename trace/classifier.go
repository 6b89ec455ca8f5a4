package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent means an event does not match any known variant.
	// It signals a broken producer, never a recoverable condition
	ErrMalformedEvent = errors.New("event does not match any known variant")

	// ErrFrameUnderflow means a message result closed a frame that was never opened
	ErrFrameUnderflow = errors.New("message result closes a frame that was never opened")

	// ErrStepOutsideFrame means a step was emitted with no open frame
	ErrStepOutsideFrame = errors.New("step emitted outside of any open frame")

	// ErrUnterminatedFrame means a message has no matching message result
	ErrUnterminatedFrame = errors.New("message has no matching message result")

	// ErrDepthMismatch means an event's recorded depth disagrees with the frame stack
	ErrDepthMismatch = errors.New("event depth does not match the open frame count")
)

// Steps returns every step of the trace, in original order.
// The trace is not modified. Fails on the first event that does not
// match a known variant.
func Steps(t *Trace) ([]*Step, error) {
	var steps []*Step

	for i, ev := range t.Events() {
		switch ev := ev.(type) {
		case *Step:
			steps = append(steps, ev)
		case *Message, *MessageResult:
		default:
			return nil, malformedEventError(i, ev)
		}
	}

	return steps, nil
}

// Messages returns every frame-entry message of the trace, in original order
func Messages(t *Trace) ([]*Message, error) {
	var messages []*Message

	for i, ev := range t.Events() {
		switch ev := ev.(type) {
		case *Message:
			messages = append(messages, ev)
		case *Step, *MessageResult:
		default:
			return nil, malformedEventError(i, ev)
		}
	}

	return messages, nil
}

// Results returns every message result of the trace, in original order
func Results(t *Trace) ([]*MessageResult, error) {
	var results []*MessageResult

	for i, ev := range t.Events() {
		switch ev := ev.(type) {
		case *MessageResult:
			results = append(results, ev)
		case *Message, *Step:
		default:
			return nil, malformedEventError(i, ev)
		}
	}

	return results, nil
}

// Partition splits the trace into its three variants in one pass.
// The outputs are pairwise disjoint and together cover the stream,
// each keeping the original relative order.
func Partition(t *Trace) ([]*Message, []*Step, []*MessageResult, error) {
	var (
		messages []*Message
		steps    []*Step
		results  []*MessageResult
	)

	for i, ev := range t.Events() {
		switch ev := ev.(type) {
		case *Message:
			messages = append(messages, ev)
		case *Step:
			steps = append(steps, ev)
		case *MessageResult:
			results = append(results, ev)
		default:
			return nil, nil, nil, malformedEventError(i, ev)
		}
	}

	return messages, steps, results, nil
}

// CheckWellNested verifies the bracket structure of the trace:
// every message is closed by exactly one later message result, frames
// never cross, steps only occur inside an open frame, and recorded
// depths agree with the number of open frames.
func CheckWellNested(t *Trace) error {
	var open []*Message

	for i, ev := range t.Events() {
		switch ev := ev.(type) {
		case *Message:
			if ev.Depth != len(open)+1 {
				return fmt.Errorf("%w: message at index %d has depth %d, %d frames open",
					ErrDepthMismatch, i, ev.Depth, len(open))
			}

			open = append(open, ev)

		case *Step:
			if len(open) == 0 {
				return fmt.Errorf("%w: step at index %d", ErrStepOutsideFrame, i)
			}

			if ev.Depth != len(open) {
				return fmt.Errorf("%w: step at index %d has depth %d, %d frames open",
					ErrDepthMismatch, i, ev.Depth, len(open))
			}

		case *MessageResult:
			if len(open) == 0 {
				return fmt.Errorf("%w: result at index %d", ErrFrameUnderflow, i)
			}

			opened := open[len(open)-1]
			if ev.Depth != opened.Depth {
				return fmt.Errorf("%w: result at index %d has depth %d, closes frame of depth %d",
					ErrDepthMismatch, i, ev.Depth, opened.Depth)
			}

			open = open[:len(open)-1]

		default:
			return malformedEventError(i, ev)
		}
	}

	if len(open) > 0 {
		return fmt.Errorf("%w: %d frames still open at stream end", ErrUnterminatedFrame, len(open))
	}

	return nil
}

func malformedEventError(index int, ev Event) error {
	return fmt.Errorf("%w: index %d (%T)", ErrMalformedEvent, index, ev)
}
