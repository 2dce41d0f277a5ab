package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrBadRequest marks malformed path or form values
var ErrBadRequest = errors.New("bad request")

// handlerFunc is a page handler, a returned error is rendered as error page
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// statusOf maps repository and input errors onto HTTP status codes
func statusOf(err error) int {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, pgengine.ErrInvalidParameter),
		errors.Is(err, pgengine.ErrNoClientName):
		return http.StatusBadRequest
	case errors.As(err, &pgErr):
		// data exception and integrity constraint violation classes
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

type errorView struct {
	Title   string
	Status  int
	Message string
}

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.fail(w, r, err)
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := log.GetLogger(r.Context()).WithError(err).WithField("status", status)
	view := errorView{Title: http.StatusText(status), Status: status, Message: err.Error()}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed")
		view.Message = "The request could not be processed, see the server log for details"
	} else {
		logger.Warn("Request rejected")
	}
	if rerr := s.render(w, status, "error.html", view); rerr != nil {
		logger.WithError(rerr).Error("Cannot render error page")
		http.Error(w, view.Message, status)
	}
}
