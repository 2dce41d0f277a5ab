package web

import (
	"fmt"
	"net/http"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type executionLogView struct {
	Title    string
	ConfigID int64
	Entries  []pgengine.ExecutionLogRow
}

func (s *Server) viewExecutionLog(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	entries, err := s.repo.GetExecutionLog(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "execution_log.html", executionLogView{
		Title:    fmt.Sprintf("Execution log of config %d", id),
		ConfigID: id,
		Entries:  entries,
	})
}

func (s *Server) exportExecutionLog(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="execution_log_%d.csv"`, id))
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	n, err := s.repo.CopyExecutionLog(r.Context(), ww, id)
	if err != nil {
		if ww.BytesWritten() > 0 {
			// headers are gone, the client gets a truncated file
			log.GetLogger(r.Context()).WithError(err).Error("Execution log export interrupted")
			return nil
		}
		w.Header().Del("Content-Disposition")
		return err
	}
	log.GetLogger(r.Context()).WithField("config", id).WithField("rows", n).Debug("Execution log exported")
	return nil
}
