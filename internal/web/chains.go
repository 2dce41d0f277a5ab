package web

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	"github.com/jackc/pgx/v5/pgtype"
)

type chainsView struct {
	Title  string
	Chains []pgengine.ChainLink
	// Tails are links without successor
	Tails map[int64]bool
}

type chainView struct {
	Title string
	Chain *pgengine.ChainNode
}

type chainFormView struct {
	Title   string
	Action  string
	Link    pgengine.ChainLink
	Tasks   []pgengine.Task
	Parents []pgengine.ChainLink
	// EditParent shows the parent selector, new links get the parent from the URL
	EditParent bool
}

func chainURL(id int64) string {
	return fmt.Sprintf("/chain/%d/", id)
}

// chainFromForm reads link fields, parent_id is only read when the form offers it
func chainFromForm(r *http.Request, withParent bool) (c pgengine.ChainLink, err error) {
	if c.TaskID, err = formRequiredInt8(r, "task_id"); err != nil {
		return
	}
	if withParent {
		if c.ParentID, err = formInt8(r, "parent_id"); err != nil {
			return
		}
	}
	if c.DatabaseConnection, err = formInt8(r, "database_connection"); err != nil {
		return
	}
	c.RunUID = formText(r, "run_uid")
	c.IgnoreError = formBool(r, "ignore_error")
	return
}

func (s *Server) listChains(w http.ResponseWriter, r *http.Request) error {
	chains, err := s.repo.GetChains(r.Context(), false)
	if err != nil {
		return err
	}
	tails, err := s.repo.GetChainTails(r.Context())
	if err != nil {
		return err
	}
	view := chainsView{Title: "Chains", Chains: chains, Tails: make(map[int64]bool, len(tails))}
	for _, t := range tails {
		view.Tails[t.ChainID] = true
	}
	return s.renderOK(w, "chains.html", view)
}

func (s *Server) viewChain(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	chain, err := s.repo.GetChain(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "chain.html", chainView{Title: fmt.Sprintf("Chain %d", id), Chain: chain})
}

func (s *Server) chainForm(w http.ResponseWriter, r *http.Request, view chainFormView) (err error) {
	if view.Tasks, err = s.repo.GetTasks(r.Context()); err != nil {
		return err
	}
	if view.EditParent {
		if view.Parents, err = s.parentChoices(r, view.Link); err != nil {
			return err
		}
	}
	return s.renderOK(w, "chain_form.html", view)
}

// parentChoices returns links able to take link as successor: the tails plus its current parent
func (s *Server) parentChoices(r *http.Request, link pgengine.ChainLink) ([]pgengine.ChainLink, error) {
	tails, err := s.repo.GetChainTails(r.Context())
	if err != nil {
		return nil, err
	}
	if !link.ParentID.Valid {
		return tails, nil
	}
	i, found := slices.BinarySearchFunc(tails, link.ParentID.Int64, func(c pgengine.ChainLink, id int64) int {
		return cmp.Compare(c.ChainID, id)
	})
	if found {
		return tails, nil
	}
	return slices.Insert(tails, i, pgengine.ChainLink{ChainID: link.ParentID.Int64}), nil
}

func (s *Server) addChainForm(w http.ResponseWriter, r *http.Request) error {
	parentID, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	title := "New chain"
	if parentID != 0 {
		if _, err = s.repo.GetChainLink(r.Context(), parentID); err != nil {
			return err
		}
		title = fmt.Sprintf("New successor of chain %d", parentID)
	}
	return s.chainForm(w, r, chainFormView{
		Title:  title,
		Action: fmt.Sprintf("/chain/%d/add/", parentID),
		Link:   pgengine.ChainLink{ParentID: pgtype.Int8{Int64: parentID, Valid: parentID != 0}},
	})
}

func (s *Server) addChain(w http.ResponseWriter, r *http.Request) error {
	parentID, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	link, err := chainFromForm(r, false)
	if err != nil {
		return err
	}
	link.ParentID = pgtype.Int8{Int64: parentID, Valid: parentID != 0}
	if _, err = s.repo.InsertChain(r.Context(), link); err != nil {
		return err
	}
	http.Redirect(w, r, configsURL, http.StatusFound)
	return nil
}

func (s *Server) editChainForm(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	link, err := s.repo.GetChainLink(r.Context(), id)
	if err != nil {
		return err
	}
	return s.chainForm(w, r, chainFormView{
		Title:      fmt.Sprintf("Edit chain %d", id),
		Action:     fmt.Sprintf("/chain/%d/edit/", id),
		Link:       link,
		EditParent: true,
	})
}

func (s *Server) editChain(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	link, err := chainFromForm(r, true)
	if err != nil {
		return err
	}
	if link.ParentID.Valid && link.ParentID.Int64 == id {
		return fmt.Errorf("%w: chain %d cannot be its own parent", ErrBadRequest, id)
	}
	link.ChainID = id
	if err = s.repo.UpdateChain(r.Context(), link); err != nil {
		return err
	}
	http.Redirect(w, r, configsURL, http.StatusFound)
	return nil
}

func (s *Server) deleteChainForm(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	if _, err = s.repo.GetChainLink(r.Context(), id); err != nil {
		return err
	}
	return s.renderOK(w, "confirm.html", confirmView{
		Title:   fmt.Sprintf("Delete chain %d", id),
		Message: "All successors of this link are deleted as well.",
		Action:  fmt.Sprintf("/chain/%d/delete/", id),
		Cancel:  chainURL(id),
	})
}

func (s *Server) deleteChain(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "chainID")
	if err != nil {
		return err
	}
	if err = s.repo.DeleteChain(r.Context(), id); err != nil {
		return err
	}
	http.Redirect(w, r, configsURL, http.StatusFound)
	return nil
}
