package tracker

import (
	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/phase"
)

// Frame is the handle returned by Push. Release it exactly once, normally
// with defer right after a successful Push:
//
//	f, err := tr.Begin(phase.Plugin, plugin)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
type Frame struct {
	t      *Tracker
	ctx    *phase.Context
	result commit.Result
}

// Context returns the context this frame activated.
func (f *Frame) Context() *phase.Context { return f.ctx }

// Cancel discards everything the context captured when it is released.
func (f *Frame) Cancel() { f.ctx.Cancel() }

// Fail marks the operation as failed; phases with DiscardOnFailure drop their
// records.
func (f *Frame) Fail() { f.ctx.MarkFailed() }

// Result is the commit summary, valid once the frame has been popped.
func (f *Frame) Result() commit.Result { return f.result }

// Close pops the frame. Closing an already released frame is a no-op, so a
// deferred Close is safe after an explicit End or a Recover.
func (f *Frame) Close() error {
	if f.ctx.State() != phase.StateActive {
		return nil
	}
	_, err := f.t.Pop(f)
	return err
}
