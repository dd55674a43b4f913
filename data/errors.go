package data

import (
	"errors"
	"fmt"
	"sync"
)

// Standard errors that handlers and the filesystem use.
var (
	// Resolution errors
	ErrNotFound    = errors.New("cellfs: entity not found")
	ErrInvalidPath = errors.New("cellfs: invalid path")

	// Handler errors
	ErrHandler      = errors.New("cellfs: handler error")
	ErrIsDirectory  = errors.New("cellfs: is a directory")
	ErrNotDirectory = errors.New("cellfs: not a directory")

	// Address errors
	ErrMalformedBackendAddress = errors.New("cellfs: malformed backend address")
	ErrUnknownBackendAddress   = errors.New("cellfs: unknown backend address protocol")
)

// NotFound reports that no mount point claims path.
func NotFound(path string) error {
	return fmt.Errorf("%w at '%s'", ErrNotFound, path)
}

// InvalidPath reports that path cannot be interpreted.
func InvalidPath(path string) error {
	return fmt.Errorf("%w %q", ErrInvalidPath, path)
}

// HandlerError wraps a backend specific failure, so callers can report it
// without knowing the backend. Both ErrHandler and the wrapped error match errors.Is.
type HandlerError struct {
	Handler string
	Op      string
	Path    string
	Err     error
}

// NewHandlerError wraps err for the named handler. It returns nil if err is nil.
func NewHandlerError(handler, op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &HandlerError{
		Handler: handler,
		Op:      op,
		Path:    path,
		Err:     err,
	}
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("cellfs: handler error: %s %s '%s': %v", e.Handler, e.Op, e.Path, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandler, e.Err}
}

// ErrorKind is the semantic class of a failure, independent of the backend.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindIO
	KindHandler
	KindNotFound
	KindInvalidPath
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindIO:
		return "io"
	case KindHandler:
		return "handler"
	case KindNotFound:
		return "not_found"
	case KindInvalidPath:
		return "invalid_path"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Errors that are neither resolution nor handler
// failures are treated as I/O failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidPath):
		return KindInvalidPath
	case errors.Is(err, ErrHandler):
		return KindHandler
	default:
		return KindIO
	}
}

type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
