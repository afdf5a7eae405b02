package compute

import "log/slog"

type release struct {
	name string
	fn   func()
}

// Scope is a LIFO stack of release functions. Register a release right
// after the matching acquisition succeeds and defer Close; Close runs the
// releases in strict reverse order of registration, each exactly once. A
// release that panics is logged and the remaining releases still run.
type Scope struct {
	stack []release
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Add registers fn to be run by Close under the given name.
func (s *Scope) Add(name string, fn func()) {
	if fn == nil {
		return
	}
	s.stack = append(s.stack, release{name: name, fn: fn})
}

// Len returns the number of pending releases.
func (s *Scope) Len() int {
	return len(s.stack)
}

// Close runs every pending release, last registered first.
func (s *Scope) Close() {
	for len(s.stack) > 0 {
		last := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		slog.Debug("Releasing device resource", "resource", last.name)
		last.run()
	}
}

func (r release) run() {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Release panicked", "resource", r.name, "panic", p)
		}
	}()
	r.fn()
}
