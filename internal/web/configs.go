package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	"github.com/jackc/pgx/v5/pgtype"
)

const configsURL = "/chain_execution_config/"

type configsView struct {
	Title   string
	Configs []pgengine.ChainConfig
}

type configView struct {
	Title    string
	Config   *pgengine.ChainConfigDetails
	Schedule schedulePreview
	Links    []linkView
}

// linkView is a chain node with the order proposed for its next parameter
type linkView struct {
	Node      *pgengine.ChainNode
	NextOrder int32
}

func configLinks(d *pgengine.ChainConfigDetails) (links []linkView) {
	if d.Chain == nil {
		return nil
	}
	d.Chain.Walk(func(n *pgengine.ChainNode, _ int) {
		next := int32(1)
		for _, p := range n.Parameters {
			next = max(next, p.OrderID+1)
		}
		links = append(links, linkView{Node: n, NextOrder: next})
	})
	return links
}

type configFormView struct {
	Title  string
	Action string
	Config pgengine.ChainConfig
	Chains []pgengine.ChainLink
	// Tasks are offered for a new config to create its root link
	Tasks []pgengine.Task
}

func configURL(id int64) string {
	return fmt.Sprintf("/chain_execution_config/%d/", id)
}

func configFromForm(r *http.Request) (c pgengine.ChainConfig, err error) {
	c.ChainName = formString(r, "chain_name")
	if c.ChainID, err = formInt8(r, "chain_id"); err != nil {
		return
	}
	for name, field := range map[string]*pgtype.Int4{
		"run_at_minute":      &c.RunAtMinute,
		"run_at_hour":        &c.RunAtHour,
		"run_at_day":         &c.RunAtDay,
		"run_at_month":       &c.RunAtMonth,
		"run_at_day_of_week": &c.RunAtDayOfWeek,
		"max_instances":      &c.MaxInstances,
	} {
		if *field, err = formInt4(r, name); err != nil {
			return
		}
	}
	c.Live = formBool(r, "live")
	c.SelfDestruct = formBool(r, "self_destruct")
	c.ExclusiveExecution = formBool(r, "exclusive_execution")
	if c.ExcludedExecutionConfigs, err = formInt32List(r, "excluded_execution_configs"); err != nil {
		return
	}
	c.ClientName = formText(r, "client_name")
	return
}

func (s *Server) listConfigs(w http.ResponseWriter, r *http.Request) error {
	configs, err := s.repo.GetChainConfigs(r.Context())
	if err != nil {
		return err
	}
	return s.renderOK(w, "configs.html", configsView{Title: "Chain execution configs", Configs: configs})
}

func (s *Server) viewConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	d, err := s.repo.GetChainConfig(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "config.html", configView{
		Title:    "Chain execution config " + d.ChainName,
		Config:   d,
		Schedule: newSchedulePreview(d.ChainConfig, time.Now()),
		Links:    configLinks(d),
	})
}

func (s *Server) configForm(w http.ResponseWriter, r *http.Request, view configFormView, withTasks bool) (err error) {
	if view.Chains, err = s.repo.GetChains(r.Context(), true); err != nil {
		return err
	}
	if withTasks {
		if view.Tasks, err = s.repo.GetTasks(r.Context()); err != nil {
			return err
		}
	}
	return s.renderOK(w, "config_form.html", view)
}

func (s *Server) addConfigForm(w http.ResponseWriter, r *http.Request) error {
	return s.configForm(w, r, configFormView{
		Title:  "New chain execution config",
		Action: "/chain_execution_config/add/",
		Config: pgengine.ChainConfig{MaxInstances: pgtype.Int4{Int32: 1, Valid: true}},
	}, true)
}

func (s *Server) addConfig(w http.ResponseWriter, r *http.Request) error {
	c, err := configFromForm(r)
	if err != nil {
		return err
	}
	taskID, err := formInt8(r, "task_id")
	if err != nil {
		return err
	}
	if taskID.Valid && c.ChainID.Valid {
		return fmt.Errorf("%w: choose either an existing chain or a task for a new one", ErrBadRequest)
	}
	if _, err = s.repo.InsertChainConfig(r.Context(), c, taskID); err != nil {
		return err
	}
	http.Redirect(w, r, configsURL, http.StatusFound)
	return nil
}

func (s *Server) editConfigForm(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	d, err := s.repo.GetChainConfig(r.Context(), id)
	if err != nil {
		return err
	}
	return s.configForm(w, r, configFormView{
		Title:  "Edit chain execution config " + d.ChainName,
		Action: fmt.Sprintf("/chain_execution_config/%d/edit/", id),
		Config: d.ChainConfig,
	}, false)
}

func (s *Server) editConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	c, err := configFromForm(r)
	if err != nil {
		return err
	}
	c.ConfigID = id
	if err = s.repo.UpdateChainConfig(r.Context(), c); err != nil {
		return err
	}
	http.Redirect(w, r, configURL(id), http.StatusFound)
	return nil
}

func (s *Server) deleteConfigForm(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	d, err := s.repo.GetChainConfig(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "confirm.html", confirmView{
		Title:   "Delete chain execution config " + d.ChainName,
		Message: "Parameters of this config are deleted as well, the chain itself is kept.",
		Action:  fmt.Sprintf("/chain_execution_config/%d/delete/", id),
		Cancel:  configURL(id),
	})
}

func (s *Server) deleteConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	if err = s.repo.DeleteChainConfig(r.Context(), id); err != nil {
		return err
	}
	http.Redirect(w, r, configsURL, http.StatusFound)
	return nil
}

func (s *Server) runConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	if err = s.repo.NotifyChainStart(r.Context(), id); err != nil {
		return err
	}
	http.Redirect(w, r, configURL(id), http.StatusFound)
	return nil
}

func (s *Server) exportConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "configID")
	if err != nil {
		return err
	}
	out, err := s.repo.ExportChainConfig(r.Context(), id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chain_execution_config_%d.yaml"`, id))
	_, _ = w.Write(out)
	return nil
}
