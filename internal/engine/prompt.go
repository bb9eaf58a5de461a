package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
)

// LinePrompter asks for room codes on a line-oriented terminal
type LinePrompter struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan string
	err   error
}

var _ domain.RoomPrompter = (*LinePrompter)(nil)

// NewLinePrompter creates a prompter reading from in and writing prompts to out
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    in,
		out:   out,
		lines: make(chan string),
	}
}

// RoomCode prompts for a code and returns it upper-cased.
// It returns io.EOF once the input is exhausted.
func (p *LinePrompter) RoomCode(ctx context.Context) (string, error) {
	p.once.Do(func() { go p.scan() })

	fmt.Fprint(p.out, "Enter room code: ")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			if p.err != nil {
				return "", p.err
			}
			return "", io.EOF
		}
		return strings.ToUpper(strings.TrimSpace(line)), nil
	}
}

// scan feeds lines to RoomCode. A blocked read cannot be interrupted, so the
// goroutine lives as long as the input does.
func (p *LinePrompter) scan() {
	defer close(p.lines)
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
	p.err = scanner.Err()
}
