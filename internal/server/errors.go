package server

import (
	"database/sql"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/alfredjeanlab/taskdeps/internal/graph"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// errorClass is how a domain error is reported on either transport.
type errorClass struct {
	httpStatus int
	code       codes.Code
	message    string
	path       []string // set for cycle errors
}

// classify maps an error from the operation layer to its transport form.
// Unknown errors are internal and keep their text for the log only.
func classify(err error) errorClass {
	var (
		ie inputError
		ce *graph.CycleError
	)
	switch {
	case errors.As(err, &ie):
		return errorClass{http.StatusBadRequest, codes.InvalidArgument, ie.Error(), nil}
	case errors.Is(err, graph.ErrSelfDependency):
		return errorClass{http.StatusBadRequest, codes.InvalidArgument, "Task cannot depend on itself", nil}
	case errors.As(err, &ce):
		return errorClass{http.StatusBadRequest, codes.InvalidArgument, "Circular dependency detected", ce.Path}
	case errors.Is(err, graph.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return errorClass{http.StatusNotFound, codes.NotFound, "task not found", nil}
	case errors.Is(err, graph.ErrDependencyNotFound):
		return errorClass{http.StatusNotFound, codes.NotFound, "dependency not found", nil}
	case errors.Is(err, graph.ErrDuplicateDependency), errors.Is(err, store.ErrDuplicate):
		return errorClass{http.StatusConflict, codes.AlreadyExists, "Dependency already exists", nil}
	default:
		return errorClass{http.StatusInternalServerError, codes.Internal, "internal server error", nil}
	}
}
