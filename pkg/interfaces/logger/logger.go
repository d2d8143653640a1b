// Package logger defines the narrow logging contract the pipeline packages
// depend on, so hosts can bridge their own logging stack.
package logger

// Field is one structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// Logger is the contract consumed throughout go-optout. With returns a child
// logger that carries the given fields on every subsequent line.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Nop discards everything. It is the default wherever a logger dependency is
// left nil.
type Nop struct{}

var _ Logger = (*Nop)(nil)

func (n *Nop) With(fields ...Field) Logger       { return n }
func (n *Nop) Debug(msg string, fields ...Field) {}
func (n *Nop) Info(msg string, fields ...Field)  {}
func (n *Nop) Warn(msg string, fields ...Field)  {}
func (n *Nop) Error(msg string, fields ...Field) {}
