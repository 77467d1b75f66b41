// Package console is the headless command surface of the editor: a reader
// goroutine turns input lines into a queue drained by the edit loop, and a
// Registry dispatches each line to a command handler.
package console

import (
	"bufio"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Session is one line-oriented command stream. Input is read in a dedicated
// goroutine; the edit loop consumes InQueue and writes replies to Out.
type Session struct {
	in  io.Reader
	Out io.Writer

	// InQueue is closed when the input reaches EOF or the session closes.
	InQueue chan string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(in io.Reader, out io.Writer, queueSize int, log *zap.Logger) *Session {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Session{
		in:      in,
		Out:     out,
		InQueue: make(chan string, queueSize),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start launches the reader goroutine.
func (s *Session) Start() {
	go s.readLoop()
}

// Close stops the reader. Lines already queued stay readable.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop pushes every input line onto InQueue, blocking while the queue is
// full so no command is ever dropped.
func (s *Session) readLoop() {
	defer close(s.InQueue)

	sc := bufio.NewScanner(s.in)
	for sc.Scan() {
		select {
		case s.InQueue <- sc.Text():
		case <-s.closeCh:
			return
		}
	}
	if err := sc.Err(); err != nil && !s.closed.Load() {
		s.log.Warn("console read error", zap.Error(err))
	}
}
