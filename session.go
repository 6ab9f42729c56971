package main

import (
	"context"
	"errors"
)

var errSessionClosed = errors.New("editor session closed")

// Session runs an editor on a single goroutine. Input from the host and
// load completions are both serialized through Run, so the editor never
// needs locking.
type Session struct {
	editor *Editor
	calls  chan func(*Editor)
	closed chan struct{}
}

func NewSession(editor *Editor) *Session {
	return &Session{
		editor: editor,
		calls:  make(chan func(*Editor)),
		closed: make(chan struct{}),
	}
}

// Run owns the editor until ctx is done, then waits for in-flight loads.
// It must be called once.
func (s *Session) Run(ctx context.Context) error {
	s.editor.Init(ctx)
	defer s.editor.Close()
	defer close(s.closed)

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-s.editor.Loads():
			s.editor.ImageLoaded(res)
		case fn := <-s.calls:
			fn(s.editor)
		}
	}
}

// Do runs fn on the session goroutine and waits for it to return. It fails
// with errSessionClosed once Run has returned.
func (s *Session) Do(ctx context.Context, fn func(*Editor)) error {
	done := make(chan struct{})
	call := func(e *Editor) {
		defer close(done)
		fn(e)
	}

	select {
	case s.calls <- call:
	case <-s.closed:
		return errSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}
