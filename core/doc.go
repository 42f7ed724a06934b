// Package core defines the error taxonomy shared by the API and its handlers.
//
// # Known and unexpected failures
//
// An AppError is raised on purpose. It carries the HTTP status it should be
// reported with and its message is always shown to the client:
//
//	if user == nil {
//	    return core.NotFound("User not found")
//	}
//
// Any other error reaching the API boundary, including a recovered panic
// (PanicError), is unexpected. It is logged in full, reported as 500 and its
// message is only exposed in development mode.
//
// AsAppError uses errors.As, so an AppError wrapped with fmt.Errorf("...: %w")
// is still treated as known.
package core
