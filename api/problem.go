package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"house-flipping/models"
)

// Problem types of the API, following RFC 7807.
const (
	TypeBadRequest  = "/errors/bad-request"
	TypeUnavailable = "/errors/service-unavailable"
	TypeInternal    = "/errors/internal"
)

var (
	errBadQuery     = errors.New("invalid query parameter")
	errNoSnapshot   = errors.New("no data loaded yet")
	errNoBoundaries = errors.New("no zip-code boundaries configured")
)

// ProblemDetails is an RFC 7807 error document.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Render implements the render.Renderer interface.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// ErrorToProblem maps an error to its problem document. Missing columns,
// invalid values and bad query parameters are client errors; an absent
// snapshot or boundary layer is a temporary unavailability.
func ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	pd := &ProblemDetails{Detail: err.Error(), Instance: r.URL.Path}
	switch {
	case errors.Is(err, models.ErrMissingKey), errors.Is(err, models.ErrType), errors.Is(err, errBadQuery):
		pd.Type, pd.Title, pd.Status = TypeBadRequest, "Bad Request", http.StatusBadRequest
	case errors.Is(err, errNoSnapshot), errors.Is(err, errNoBoundaries):
		pd.Type, pd.Title, pd.Status = TypeUnavailable, "Service Unavailable", http.StatusServiceUnavailable
	default:
		pd.Type, pd.Title, pd.Status = TypeInternal, "Internal Server Error", http.StatusInternalServerError
	}
	return pd
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	pd := ErrorToProblem(err, r)
	if pd.Status >= http.StatusInternalServerError {
		s.logger.Error("[api] %s %s: %v", r.Method, r.URL.Path, err)
	} else {
		s.logger.Debug("[api] %s %s: %v", r.Method, r.URL.Path, err)
	}
	s.respond(w, r, pd)
}

// respond renders v. A renderer failure happens after the status is chosen,
// so it is only logged.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		s.logger.Debug("[api] %s %s: render: %v", r.Method, r.URL.Path, err)
	}
}
