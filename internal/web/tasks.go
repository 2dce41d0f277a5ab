package web

import (
	"fmt"
	"net/http"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
)

const tasksURL = "/tasks/"

type tasksView struct {
	Title string
	Tasks []pgengine.Task
}

type taskView struct {
	Title string
	Task  pgengine.Task
}

type taskFormView struct {
	Title  string
	Action string
	Task   pgengine.Task
	Kinds  []string
}

// confirmView asks before a destructive POST
type confirmView struct {
	Title   string
	Message string
	Action  string
	Cancel  string
}

func taskURL(id int64) string {
	return fmt.Sprintf("/task/%d/", id)
}

func taskFromForm(r *http.Request) pgengine.Task {
	return pgengine.Task{
		Name:   formString(r, "task_name"),
		Kind:   formString(r, "task_kind"),
		Script: formText(r, "task_function"),
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) error {
	tasks, err := s.repo.GetTasks(r.Context())
	if err != nil {
		return err
	}
	return s.renderOK(w, "tasks.html", tasksView{Title: "Tasks", Tasks: tasks})
}

func (s *Server) viewTask(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "taskID")
	if err != nil {
		return err
	}
	task, err := s.repo.GetTask(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "task.html", taskView{Title: "Task " + task.Name, Task: task})
}

func (s *Server) addTaskForm(w http.ResponseWriter, _ *http.Request) error {
	return s.renderOK(w, "task_form.html", taskFormView{
		Title:  "New task",
		Action: "/tasks/add/",
		Task:   pgengine.Task{Kind: pgengine.TaskKindSQL},
		Kinds:  pgengine.TaskKinds,
	})
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) error {
	if _, err := s.repo.InsertTask(r.Context(), taskFromForm(r)); err != nil {
		return err
	}
	http.Redirect(w, r, tasksURL, http.StatusFound)
	return nil
}

func (s *Server) editTaskForm(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "taskID")
	if err != nil {
		return err
	}
	task, err := s.repo.GetTask(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "task_form.html", taskFormView{
		Title:  "Edit task " + task.Name,
		Action: fmt.Sprintf("/task/%d/edit/", id),
		Task:   task,
		Kinds:  pgengine.TaskKinds,
	})
}

func (s *Server) editTask(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "taskID")
	if err != nil {
		return err
	}
	task := taskFromForm(r)
	task.TaskID = id
	if err = s.repo.UpdateTask(r.Context(), task); err != nil {
		return err
	}
	http.Redirect(w, r, taskURL(id), http.StatusFound)
	return nil
}

func (s *Server) deleteTaskForm(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "taskID")
	if err != nil {
		return err
	}
	task, err := s.repo.GetTask(r.Context(), id)
	if err != nil {
		return err
	}
	return s.renderOK(w, "confirm.html", confirmView{
		Title:   "Delete task " + task.Name,
		Message: "Chain links executing this task are deleted as well.",
		Action:  fmt.Sprintf("/task/%d/delete/", id),
		Cancel:  taskURL(id),
	})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "taskID")
	if err != nil {
		return err
	}
	if err = s.repo.DeleteTask(r.Context(), id); err != nil {
		return err
	}
	http.Redirect(w, r, tasksURL, http.StatusFound)
	return nil
}
