// Package undo maintains the bounded in-session history of reversible
// commands. History is intentionally ephemeral: durable recovery is the
// backup manager's job.
package undo

import "github.com/winenv/envkit/pkg/types"

// DefaultLimit bounds the history when the caller does not configure one.
const DefaultLimit = 100

// Command is one applied mutation and its inverse. Forward and Inverse go
// straight through the accessor apply path; neither pushes a new command.
type Command struct {
	Desc    string
	Scope   types.Scope
	Name    string
	Forward func() error
	Inverse func() error
}

// Stack holds the bounded history and redo future.
type Stack struct {
	limit  int
	past   []*Command
	future []*Command
}

// NewStack returns a stack bounded to limit commands (DefaultLimit if <= 0).
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{limit: limit}
}

// Push records a committed command and clears the redo future. When the
// history is full the oldest command is evicted; its durable backup remains.
func (s *Stack) Push(cmd *Command) {
	s.future = s.future[:0]
	if len(s.past) >= s.limit {
		copy(s.past, s.past[1:])
		s.past = s.past[:len(s.past)-1]
	}
	s.past = append(s.past, cmd)
}

// Undo moves the newest command to the redo future and returns it. The
// caller runs its Inverse. Fails with types.ErrNothingToUndo when empty.
func (s *Stack) Undo() (*Command, error) {
	if len(s.past) == 0 {
		return nil, types.ErrNothingToUndo
	}
	cmd := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, cmd)
	return cmd, nil
}

// Redo moves the newest undone command back to history and returns it. The
// caller runs its Forward. Fails with types.ErrNothingToRedo when empty.
func (s *Stack) Redo() (*Command, error) {
	if len(s.future) == 0 {
		return nil, types.ErrNothingToRedo
	}
	cmd := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, cmd)
	return cmd, nil
}

// CanUndo reports whether history is non-empty.
func (s *Stack) CanUndo() bool { return len(s.past) > 0 }

// CanRedo reports whether the redo future is non-empty.
func (s *Stack) CanRedo() bool { return len(s.future) > 0 }

// Depth returns the history length.
func (s *Stack) Depth() int { return len(s.past) }
