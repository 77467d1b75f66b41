package console

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownCommand is returned for a verb with no registered handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when a command has the wrong number or shape of arguments.
	ErrUsage = errors.New("usage")
	// ErrQuit is returned by the quit command to end the session.
	ErrQuit = errors.New("quit")
)

// Command is one parsed input line.
type Command struct {
	Verb string
	Args []string
}

// Parse splits a line into a verb and arguments. Double quotes group words
// into one argument. Blank lines and lines starting with '#' yield ok=false.
func Parse(line string) (cmd Command, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Command{}, false, nil
	}
	fields, err := split(line)
	if err != nil {
		return Command{}, false, err
	}
	return Command{Verb: strings.ToLower(fields[0]), Args: fields[1:]}, true, nil
}

func split(line string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		quoted bool
		inWord bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			inWord = true
		case !quoted && (r == ' ' || r == '\t'):
			if inWord {
				fields = append(fields, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if inWord {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s: %q is not a finite number", name, s)
	}
	return v, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on", "lights":
		return true, nil
	case "no", "off":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("lights: %q is not a flag", s)
	}
	return v, nil
}
