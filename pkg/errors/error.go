package errors

import (
	"errors"
	"fmt"

	"github.com/assetnote/serverbench/pkg/log"
	"github.com/hashicorp/go-multierror"
)

// Kind classifies a failure. The zero value is Unknown
type Kind int

const (
	Unknown Kind = iota
	UnknownServerType
	AlreadyRunning
	NotRunning
	BindFailure
	ConnectionFailure
	LoadTestTimeout
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case UnknownServerType:
		return "unknown server type"
	case AlreadyRunning:
		return "server is already running"
	case NotRunning:
		return "server is not running"
	case BindFailure:
		return "failed to bind"
	case ConnectionFailure:
		return "connection failure"
	case LoadTestTimeout:
		return "load test timed out"
	case InvalidArgument:
		return "invalid argument"
	}
	return "unknown error"
}

// Sentinel values for errors.Is comparisons. Any *Error with the same Kind matches.
var (
	ErrUnknownServerType = &Error{Kind: UnknownServerType}
	ErrAlreadyRunning    = &Error{Kind: AlreadyRunning}
	ErrNotRunning        = &Error{Kind: NotRunning}
	ErrBindFailure       = &Error{Kind: BindFailure}
	ErrConnectionFailure = &Error{Kind: ConnectionFailure}
	ErrLoadTestTimeout   = &Error{Kind: LoadTestTimeout}
	ErrInvalidArgument   = &Error{Kind: InvalidArgument}
)

// Error carries the kind of failure along with which server and operation produced it.
// Server and Op are optional context and may be empty.
type Error struct {
	Kind   Kind
	Server string // Server is the strategy name the failure relates to
	Op     string // Op is the operation being performed, e.g. "start", "accept", "handle"
	Err    error  // Err is the underlying cause, if any
}

// New creates an error of the provided kind
func New(kind Kind, server, op string, err error) *Error {
	return &Error{Kind: kind, Server: server, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Server != "" {
		msg = fmt.Sprintf("%s: %s", e.Server, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so the exported sentinels can be used with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in the chain, or Unknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// prefixFromDepth will create the indent prefix for a certain depth
// of string, e.g. 2 will yield "  " * 2 -> "    "
func prefixFromDepth(depth int) string {
	var p []byte
	for i := 0; i < depth; i++ {
		p = append(p, "  "...)
	}
	return string(p)
}

// PrintError will traverse the error and log each nested error found.
// If a multierror.Error is found, we will recursively print out each error found
func PrintError(err error, depth int) {
	var (
		merr *multierror.Error
		serr *Error
	)

	if errors.As(err, &merr) {
		for _, v := range merr.Errors {
			PrintError(v, depth+1)
		}
	} else if errors.As(err, &serr) {
		log.Error().
			Str("kind", serr.Kind.String()).
			Str("server", serr.Server).
			Str("op", serr.Op).
			Err(serr.Err).
			Msg(prefixFromDepth(depth) + "error")
	} else {
		log.Error().Err(err).Msg(prefixFromDepth(depth) + "error")
	}
}
