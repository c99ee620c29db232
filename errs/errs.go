// Package errs defines the error kinds surfaced by the engine.
//
// Call sites wrap these sentinels with fmt.Errorf("...: %w", ...) so callers
// can classify failures with errors.Is while still seeing the full context.
package errs

import "errors"

var (
	// ErrFileOpen indicates an input or output path could not be opened.
	ErrFileOpen = errors.New("file open")

	// ErrFileCreate indicates the performance metadata file or a generated log
	// file could not be created.
	ErrFileCreate = errors.New("file create")

	// ErrInvalidFormat indicates a malformed filter spec, or a malformed
	// timestamp on the binary-search path.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidParameterCount indicates a filter spec with the wrong arity.
	ErrInvalidParameterCount = errors.New("invalid parameter count")

	// ErrThreadCreation indicates a background task could not be launched,
	// such as the live receiver's lumberjack server.
	ErrThreadCreation = errors.New("thread creation")

	// ErrUnknownKind indicates an unrecognized filter or histogram kind.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrOutOfRange indicates a numeric literal outside the representable range.
	ErrOutOfRange = errors.New("out of range")

	// ErrNoData indicates a consumer requested a record when none is available.
	ErrNoData = errors.New("no data")
)
