package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	stdlog "log"
	"net/http"
	"time"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/config"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Repository is the configuration store the panel works on
type Repository interface {
	IsReady(ctx context.Context) bool

	GetTasks(ctx context.Context) ([]pgengine.Task, error)
	GetTask(ctx context.Context, taskID int64) (pgengine.Task, error)
	InsertTask(ctx context.Context, t pgengine.Task) (int64, error)
	UpdateTask(ctx context.Context, t pgengine.Task) error
	DeleteTask(ctx context.Context, taskID int64) error

	GetChains(ctx context.Context, onlyBase bool) ([]pgengine.ChainLink, error)
	GetChainTails(ctx context.Context) ([]pgengine.ChainLink, error)
	GetChainLink(ctx context.Context, chainID int64) (pgengine.ChainLink, error)
	GetChain(ctx context.Context, chainID int64) (*pgengine.ChainNode, error)
	InsertChain(ctx context.Context, c pgengine.ChainLink) (int64, error)
	UpdateChain(ctx context.Context, c pgengine.ChainLink) error
	DeleteChain(ctx context.Context, chainID int64) error

	GetChainConfigs(ctx context.Context) ([]pgengine.ChainConfig, error)
	GetChainConfig(ctx context.Context, configID int64) (*pgengine.ChainConfigDetails, error)
	InsertChainConfig(ctx context.Context, c pgengine.ChainConfig, taskID pgtype.Int8) (int64, error)
	UpdateChainConfig(ctx context.Context, c pgengine.ChainConfig) error
	DeleteChainConfig(ctx context.Context, configID int64) error
	ExportChainConfig(ctx context.Context, configID int64) ([]byte, error)
	NotifyChainStart(ctx context.Context, configID int64) error

	GetParameters(ctx context.Context) ([]pgengine.Parameter, error)
	GetParameter(ctx context.Context, key pgengine.ParameterKey) (pgengine.Parameter, error)
	UpsertParameter(ctx context.Context, p pgengine.Parameter) error
	MoveParameter(ctx context.Context, oldKey pgengine.ParameterKey, p pgengine.Parameter) error
	DeleteParameter(ctx context.Context, key pgengine.ParameterKey) error

	GetExecutionLog(ctx context.Context, configID int64) ([]pgengine.ExecutionLogRow, error)
	CopyExecutionLog(ctx context.Context, w io.Writer, configID int64) (int64, error)
}

// Server is the admin panel HTTP server
type Server struct {
	repo     Repository
	l        log.LoggerIface
	pages    map[string]*template.Template
	errorLog *io.PipeWriter
	*http.Server
}

// New creates the panel server, call Serve to start listening
func New(opts config.WebOpts, repo Repository, logger log.LoggerIface) (*Server, error) {
	pages, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("cannot load templates: %w", err)
	}
	s := &Server{
		repo:     repo,
		l:        logger,
		pages:    pages,
		errorLog: log.Writer(logger, logrus.ErrorLevel),
	}
	s.Server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", opts.Address, opts.Port),
		Handler:        s.routes(opts.RateLimit),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		ErrorLog:       stdlog.New(s.errorLog, "", 0),
	}
	return s, nil
}

func (s *Server) routes(rateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(s.middlewares()...)

	r.Get("/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK) // i'm serving hence I'm alive
	})
	r.Get("/readiness", s.readinessHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(httprate.LimitByIP(rateLimit, time.Minute))
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, configsURL, http.StatusFound)
		})

		r.Get("/tasks/", s.handle(s.listTasks))
		r.Get("/tasks/add/", s.handle(s.addTaskForm))
		r.Post("/tasks/add/", s.handle(s.addTask))
		r.Get("/task/{taskID}/", s.handle(s.viewTask))
		r.Get("/task/{taskID}/edit/", s.handle(s.editTaskForm))
		r.Post("/task/{taskID}/edit/", s.handle(s.editTask))
		r.Get("/task/{taskID}/delete/", s.handle(s.deleteTaskForm))
		r.Post("/task/{taskID}/delete/", s.handle(s.deleteTask))

		r.Get("/chains/", s.handle(s.listChains))
		r.Get("/chain/{chainID}/", s.handle(s.viewChain))
		r.Get("/chain/{chainID}/edit/", s.handle(s.editChainForm))
		r.Post("/chain/{chainID}/edit/", s.handle(s.editChain))
		r.Get("/chain/{chainID}/add/", s.handle(s.addChainForm))
		r.Post("/chain/{chainID}/add/", s.handle(s.addChain))
		r.Get("/chain/{chainID}/delete/", s.handle(s.deleteChainForm))
		r.Post("/chain/{chainID}/delete/", s.handle(s.deleteChain))

		r.Get("/chain_execution_config/", s.handle(s.listConfigs))
		r.Get("/chain_execution_config/add/", s.handle(s.addConfigForm))
		r.Post("/chain_execution_config/add/", s.handle(s.addConfig))
		r.Get("/chain_execution_config/{configID}/", s.handle(s.viewConfig))
		r.Get("/chain_execution_config/{configID}/edit/", s.handle(s.editConfigForm))
		r.Post("/chain_execution_config/{configID}/edit/", s.handle(s.editConfig))
		r.Get("/chain_execution_config/{configID}/delete/", s.handle(s.deleteConfigForm))
		r.Post("/chain_execution_config/{configID}/delete/", s.handle(s.deleteConfig))
		r.Post("/chain_execution_config/{configID}/run/", s.handle(s.runConfig))
		r.Get("/chain_execution_config/{configID}/export/", s.handle(s.exportConfig))

		r.Get("/chain_execution_parameters/", s.handle(s.listParameters))
		r.Route("/chain_execution_parameters/{configID}/{chainID}/{orderID}", func(r chi.Router) {
			r.Get("/", s.handle(s.viewParameter))
			r.Get("/add/", s.handle(s.addParameterForm))
			r.Post("/add/", s.handle(s.addParameter))
			r.Get("/edit/", s.handle(s.editParameterForm))
			r.Post("/edit/", s.handle(s.editParameter))
			r.Post("/delete/", s.handle(s.deleteParameter))
		})

		r.Get("/execution_log/{configID}/", s.handle(s.viewExecutionLog))
		r.Get("/execution_log/{configID}/csv/", s.handle(s.exportExecutionLog))
	})
	return r
}

func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil || !s.repo.IsReady(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Serve listens until ctx is cancelled and then shuts the server down gracefully
func (s *Server) Serve(ctx context.Context) error {
	defer s.errorLog.Close()
	s.l.WithField("address", s.Addr).Info("Starting admin panel...")
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.l.Info("Shutting down admin panel...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
