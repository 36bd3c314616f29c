package build

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// clearLine returns the cursor to column zero and erases the line.
const clearLine = "\r\x1b[2K"

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

// progress draws a single-line spinner with a message. The spinner runs in
// its own goroutine; set may be called from any goroutine.
type progress struct {
	out     io.Writer
	animate bool
	frames  spinner.Spinner

	mu  sync.Mutex
	msg string

	done    chan struct{}
	stopped chan struct{}
}

// newProgress creates a spinner. When animate is false nothing is drawn.
func newProgress(out io.Writer, animate bool, msg string) *progress {
	return &progress{
		out:     out,
		animate: animate,
		frames:  spinner.Line,
		msg:     msg,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (p *progress) start() {
	if !p.animate {
		close(p.stopped)
		return
	}
	go p.loop()
}

func (p *progress) loop() {
	defer close(p.stopped)

	fps := p.frames.FPS
	if fps <= 0 {
		fps = 100 * time.Millisecond
	}
	ticker := time.NewTicker(fps)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		p.mu.Lock()
		fmt.Fprintf(p.out, "%s%s %s", clearLine,
			spinnerStyle.Render(p.frames.Frames[frame%len(p.frames.Frames)]), p.msg)
		p.mu.Unlock()

		select {
		case <-p.done:
			fmt.Fprint(p.out, clearLine)
			return
		case <-ticker.C:
		}
	}
}

func (p *progress) set(msg string) {
	p.mu.Lock()
	p.msg = msg
	p.mu.Unlock()
}

func (p *progress) message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msg
}

// stop ends the spinner and clears its line. It blocks until the spinner
// goroutine has exited.
func (p *progress) stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	<-p.stopped
}

// lineWriter splits written bytes into lines and hands each complete line to
// fn. It keeps the last few lines for error reports.
type lineWriter struct {
	fn      func(line string)
	buf     bytes.Buffer
	tail    []string
	maxTail int
}

func newLineWriter(maxTail int, fn func(line string)) *lineWriter {
	return &lineWriter{fn: fn, maxTail: maxTail}
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		w.emit(line[:len(line)-1])
	}
	return len(b), nil
}

// flush emits a trailing line that had no newline.
func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	if w.maxTail > 0 {
		w.tail = append(w.tail, line)
		if len(w.tail) > w.maxTail {
			w.tail = w.tail[1:]
		}
	}
	w.fn(line)
}

func (w *lineWriter) lastLines() []string {
	return w.tail
}
