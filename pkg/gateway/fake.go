package gateway

import (
	"context"
	"strings"
	"sync"
)

// Fake is a scripted Gateway. Handlers match on a substring of the joined script, the
// most recently registered match wins. Unmatched calls get Default.
type Fake struct {
	mu       sync.Mutex
	handlers []fakeHandler
	calls    []string
	Default  Result
}

type fakeHandler struct {
	match string
	fn    func(script string) Result
}

// NewFake returns a Fake that fails every unmatched call with exit code 127.
func NewFake() *Fake {
	return &Fake{Default: Failed(127, "command not found")}
}

// On answers every script containing match with r.
func (f *Fake) On(match string, r Result) *Fake {
	return f.Handle(match, func(string) Result { return r })
}

// Handle answers every script containing match with fn(script).
func (f *Fake) Handle(match string, fn func(script string) Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{match: match, fn: fn})
	return f
}

func (f *Fake) Exec(_ context.Context, cmds ...string) Result {
	script := strings.Join(cmds, "\n")
	f.mu.Lock()
	f.calls = append(f.calls, script)
	var fn func(string) Result
	for i := len(f.handlers) - 1; i >= 0; i-- {
		if strings.Contains(script, f.handlers[i].match) {
			fn = f.handlers[i].fn
			break
		}
	}
	f.mu.Unlock()

	if fn == nil {
		return f.Default
	}
	return fn(script)
}

// Calls returns every script executed so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts the scripts containing match.
func (f *Fake) CallCount(match string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.Contains(c, match) {
			n++
		}
	}
	return n
}

// OK is a successful Result with the given stdout.
func OK(stdout ...string) Result {
	if stdout == nil {
		stdout = []string{}
	}
	return Result{Success: true, Stdout: stdout, Stderr: []string{}}
}

// OKText is OK with stdout given as one block of text.
func OKText(text string) Result {
	return OK(splitLines(text)...)
}

// Failed is a Result for a command that ran and exited non-zero.
func Failed(code int, stderr ...string) Result {
	return Result{ExitCode: code, Stdout: []string{}, Stderr: stderr}
}

// Broken is a Result for a call that never completed.
func Broken(err error) Result {
	return Result{ExitCode: -1, Err: err, Stdout: []string{}, Stderr: []string{}}
}
