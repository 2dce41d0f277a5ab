package web

import (
	"fmt"
	"net/http"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
)

const parametersURL = "/chain_execution_parameters/"

type parametersView struct {
	Title      string
	Parameters []pgengine.Parameter
}

type parameterView struct {
	Title     string
	Parameter pgengine.Parameter
}

type parameterFormView struct {
	Title     string
	Action    string
	Parameter pgengine.Parameter
}

func parameterURL(k pgengine.ParameterKey) string {
	return fmt.Sprintf("/chain_execution_parameters/%d/%d/%d/", k.ConfigID, k.ChainID, k.OrderID)
}

// pathKey reads the parameter key from the URL, the order is validated when the parameter is saved
func pathKey(r *http.Request) (k pgengine.ParameterKey, err error) {
	if k.ConfigID, err = pathInt(r, "configID"); err != nil {
		return
	}
	if k.ChainID, err = pathInt(r, "chainID"); err != nil {
		return
	}
	order, err := pathInt(r, "orderID")
	if err != nil {
		return
	}
	k.OrderID = int32(order)
	if int64(k.OrderID) != order {
		err = fmt.Errorf("%w: orderID is out of range", ErrBadRequest)
	}
	return
}

// parameterFromForm takes config and chain from the URL, order and value from the form
func parameterFromForm(r *http.Request, urlKey pgengine.ParameterKey) (pgengine.Parameter, error) {
	p := pgengine.Parameter{ParameterKey: urlKey, Value: formText(r, "value")}
	order, err := formInt4(r, "order_id")
	if err != nil {
		return p, err
	}
	if !order.Valid {
		return p, fmt.Errorf("%w: order_id is required", ErrBadRequest)
	}
	p.OrderID = order.Int32
	return p, nil
}

func (s *Server) listParameters(w http.ResponseWriter, r *http.Request) error {
	params, err := s.repo.GetParameters(r.Context())
	if err != nil {
		return err
	}
	return s.renderOK(w, "parameters.html", parametersView{Title: "Chain execution parameters", Parameters: params})
}

func (s *Server) viewParameter(w http.ResponseWriter, r *http.Request) error {
	key, err := pathKey(r)
	if err != nil {
		return err
	}
	p, err := s.repo.GetParameter(r.Context(), key)
	if err != nil {
		return err
	}
	return s.renderOK(w, "parameter.html", parameterView{Title: "Parameter " + key.String(), Parameter: p})
}

func (s *Server) addParameterForm(w http.ResponseWriter, r *http.Request) error {
	key, err := pathKey(r)
	if err != nil {
		return err
	}
	return s.renderOK(w, "parameter_form.html", parameterFormView{
		Title:     fmt.Sprintf("New parameter of config %d chain %d", key.ConfigID, key.ChainID),
		Action:    parameterURL(key) + "add/",
		Parameter: pgengine.Parameter{ParameterKey: key},
	})
}

func (s *Server) addParameter(w http.ResponseWriter, r *http.Request) error {
	key, err := pathKey(r)
	if err != nil {
		return err
	}
	p, err := parameterFromForm(r, key)
	if err != nil {
		return err
	}
	if err = s.repo.UpsertParameter(r.Context(), p); err != nil {
		return err
	}
	http.Redirect(w, r, parameterURL(p.ParameterKey), http.StatusFound)
	return nil
}

func (s *Server) editParameterForm(w http.ResponseWriter, r *http.Request) error {
	key, err := pathKey(r)
	if err != nil {
		return err
	}
	p, err := s.repo.GetParameter(r.Context(), key)
	if err != nil {
		return err
	}
	return s.renderOK(w, "parameter_form.html", parameterFormView{
		Title:     "Edit parameter " + key.String(),
		Action:    parameterURL(key) + "edit/",
		Parameter: p,
	})
}

func (s *Server) editParameter(w http.ResponseWriter, r *http.Request) error {
	key, err := pathKey(r)
	if err != nil {
		return err
	}
	p, err := parameterFromForm(r, key)
	if err != nil {
		return err
	}
	if err = s.repo.MoveParameter(r.Context(), key, p); err != nil {
		return err
	}
	http.Redirect(w, r, parameterURL(p.ParameterKey), http.StatusFound)
	return nil
}

func (s *Server) deleteParameter(w http.ResponseWriter, r *http.Request) error {
	key, err := pathKey(r)
	if err != nil {
		return err
	}
	if err = s.repo.DeleteParameter(r.Context(), key); err != nil {
		return err
	}
	http.Redirect(w, r, configURL(key.ConfigID), http.StatusFound)
	return nil
}
