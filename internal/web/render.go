package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed templates
var templateFS embed.FS

const timeFormat = "2006-01-02 15:04:05"

var templateFuncs = template.FuncMap{
	"null": nullable,
	"ints": joinInts,
}

// nullable renders database values, NULL becomes an empty string
func nullable(v any) string {
	switch v := v.(type) {
	case pgtype.Text:
		return v.String
	case pgtype.Int8:
		if v.Valid {
			return fmt.Sprint(v.Int64)
		}
	case pgtype.Int4:
		if v.Valid {
			return fmt.Sprint(v.Int32)
		}
	case pgtype.Timestamptz:
		if v.Valid {
			return v.Time.Format(timeFormat)
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return ""
}

func joinInts(list []int32) string {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

// loadPages builds one template set per page, each sharing the layout
func loadPages() (map[string]*template.Template, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if pages[path.Base(f)], err = t.ParseFS(templateFS, f); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

// render executes the page into a buffer first, so template errors never produce half written pages
func (s *Server) render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := s.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %s", page)
	}
	var b bytes.Buffer
	if err := t.ExecuteTemplate(&b, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := b.WriteTo(w)
	return err
}

func (s *Server) renderOK(w http.ResponseWriter, page string, data any) error {
	return s.render(w, http.StatusOK, page, data)
}
