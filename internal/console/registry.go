package console

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/editor"
	"github.com/roadroute/editor/internal/metrics"
)

// Context is what a handler sees while running one command.
type Context struct {
	Editor *editor.Editor
	Out    io.Writer
	// Timeout bounds mirror calls made by save and pull.
	Timeout time.Duration
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// HandlerFunc runs one command.
type HandlerFunc func(c *Context, args []string) error

type handlerEntry struct {
	fn      HandlerFunc
	usage   string
	minArgs int
	maxArgs int
}

// Registry maps verbs to handlers with argument-count checks.
type Registry struct {
	handlers map[string]*handlerEntry
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewRegistry(m *metrics.Metrics, log *zap.Logger) *Registry {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Registry{
		handlers: make(map[string]*handlerEntry),
		metrics:  m,
		log:      log,
	}
}

// Register maps verb to fn, accepting between minArgs and maxArgs arguments
// (maxArgs < 0 means unbounded).
func (reg *Registry) Register(verb, usage string, minArgs, maxArgs int, fn HandlerFunc) {
	reg.handlers[verb] = &handlerEntry{fn: fn, usage: usage, minArgs: minArgs, maxArgs: maxArgs}
}

// Verbs returns the registered verbs, sorted.
func (reg *Registry) Verbs() []string {
	out := make([]string, 0, len(reg.handlers))
	for v := range reg.handlers {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Usage returns the usage line of verb.
func (reg *Registry) Usage(verb string) string {
	if h, ok := reg.handlers[verb]; ok {
		return h.usage
	}
	return ""
}

// Dispatch parses line and runs its handler. Blank and comment lines are
// ignored. ErrQuit is passed through unchanged.
func (reg *Registry) Dispatch(c *Context, line string) error {
	cmd, ok, err := Parse(line)
	if err != nil {
		reg.metrics.CommandsTotal.WithLabelValues("invalid", "error").Inc()
		return err
	}
	if !ok {
		return nil
	}

	h, found := reg.handlers[cmd.Verb]
	if !found {
		reg.metrics.CommandsTotal.WithLabelValues("unknown", "error").Inc()
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Verb)
	}
	if len(cmd.Args) < h.minArgs || (h.maxArgs >= 0 && len(cmd.Args) > h.maxArgs) {
		reg.metrics.CommandsTotal.WithLabelValues(cmd.Verb, "error").Inc()
		return fmt.Errorf("%w: %s", ErrUsage, h.usage)
	}

	err = h.fn(c, cmd.Args)
	result := "ok"
	if err != nil && !errors.Is(err, ErrQuit) {
		result = "error"
	}
	reg.metrics.CommandsTotal.WithLabelValues(cmd.Verb, result).Inc()
	if err != nil && result == "error" {
		reg.log.Debug("command failed", zap.String("verb", cmd.Verb), zap.Error(err))
	}
	return err
}
