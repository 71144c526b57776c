// Package failure defines the error kinds reported by the runtime, so callers
// can tell a cgroup problem from a spawn problem without matching strings.
package failure

import (
	"errors"
	"strings"
)

type Kind int

const (
	Unknown Kind = iota
	DirectoryCreateError
	LimitWriteError
	MembershipWriteError
	DirectoryRemoveError
	ChannelError
	SpawnFailed
	IsolationStepFailed
	ExecFailed
	WaitError
)

func (k Kind) String() string {
	switch k {
	case DirectoryCreateError:
		return "directory create error"
	case LimitWriteError:
		return "limit write error"
	case MembershipWriteError:
		return "membership write error"
	case DirectoryRemoveError:
		return "directory remove error"
	case ChannelError:
		return "channel error"
	case SpawnFailed:
		return "spawn failed"
	case IsolationStepFailed:
		return "isolation step failed"
	case ExecFailed:
		return "exec failed"
	case WaitError:
		return "wait error"
	default:
		return "unknown"
	}
}

// Error carries a Kind together with the operation and path that failed.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of kind k. Err may be nil.
func New(k Kind, op string, err error) error {
	return &Error{Kind: k, Op: op, Err: err}
}

// NewPath is New with the file or directory the operation touched.
func NewPath(k Kind, op, path string, err error) error {
	return &Error{Kind: k, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
