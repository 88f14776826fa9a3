package display

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Status is the start/stop indicator shown while files are copied.
type Status struct {
	writer  io.Writer
	useBar  bool
	bar     *pb.ProgressBar
	total   int
	current int
	running bool

	active *color.Color
	done   *color.Color
	failed *color.Color
}

// NewStatus creates a Status writing to w. A progress bar is used only when
// progress is true and w is a terminal.
func NewStatus(w io.Writer, progress bool) *Status {
	s := &Status{
		writer: w,
		useBar: progress && isTerminal(w),
		active: color.New(color.FgMagenta),
		done:   color.New(color.FgGreen),
		failed: color.New(color.FgRed),
	}
	if !isTerminal(w) {
		s.active.DisableColor()
		s.done.DisableColor()
		s.failed.DisableColor()
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start shows message and begins tracking total entries
func (s *Status) Start(message string, total int) {
	s.total = total
	s.current = 0
	s.running = true

	if !s.useBar {
		fmt.Fprintf(s.writer, "%s  %s (%d entries)\n", s.active.Sprint("◒"), message, total)
		return
	}

	s.bar = pb.New(total)
	s.bar.Output = s.writer
	s.bar.ShowTimeLeft = true
	s.bar.Prefix(message + " ")
	s.bar.Start()
}

// Step records one copied entry
func (s *Status) Step(path string) {
	if !s.running {
		return
	}
	s.current++
	if s.bar != nil {
		s.bar.Increment()
	}
}

// Stop ends a successful run
func (s *Status) Stop(message string) {
	s.finish()
	fmt.Fprintf(s.writer, "%s  %s\n", s.done.Sprint("◇"), message)
}

// Fail ends a run that did not complete
func (s *Status) Fail(message string) {
	s.finish()
	fmt.Fprintf(s.writer, "%s  %s (%d of %d entries copied)\n", s.failed.Sprint("■"), message, s.current, s.total)
}

// Copied returns the number of entries stepped since Start
func (s *Status) Copied() int {
	return s.current
}

func (s *Status) finish() {
	if s.bar != nil {
		s.bar.Finish()
		s.bar = nil
	}
	s.running = false
}

// ClearScreen clears a terminal and homes the cursor. Non-terminal writers
// are left untouched so redirected output stays readable.
func ClearScreen(w io.Writer) {
	if isTerminal(w) {
		fmt.Fprint(w, "\x1b[H\x1b[2J")
	}
}
