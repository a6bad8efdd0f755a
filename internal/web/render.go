package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/logs"
	"github.com/UkralStul/yatube/internal/storage"

	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templateFS embed.FS

// Страницы, которые рендерятся внутри layout.html.
var pages = []string{
	"index.html",
	"group_list.html",
	"profile.html",
	"post_detail.html",
	"create_post.html",
	"follow.html",
	"login.html",
	"signup.html",
	"logged_out.html",
	"about.html",
	"404.html",
	"403.html",
	"500.html",
}

// PageData holds the data to be passed to the template.
type PageData struct {
	User    *domain.User // текущий пользователь или nil
	Content interface{}  // данные конкретной страницы
}

type notFoundData struct {
	Path string
}

func parseTemplates(mediaURL func(string) string) (map[string]*template.Template, error) {
	root, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	funcs := template.FuncMap{
		"media": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("02.01.2006 15:04")
		},
		"year": func() int {
			return time.Now().Year()
		},
		"linebreaks": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(html.EscapeString(s), "\n", "<br>"))
		},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		// layout.html парсится первым, страница определяет "title" и "content"
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(root, "layout.html", "partials.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

// render выполняет шаблон страницы в буфер и только потом пишет ответ.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, content interface{}) {
	tmpl, ok := s.templates[page]
	if !ok {
		s.logError(r, "unknown template", fmt.Errorf("template %q is not registered", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := PageData{User: auth.UserFrom(r.Context()), Content: content}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logError(r, "template execution failed", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "404.html", notFoundData{Path: r.URL.Path})
}

func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusForbidden, "403.html", nil)
}

// fail отвечает 404 на ErrNotFound, иначе логирует и отвечает 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	s.logError(r, "request failed", err)
	s.render(w, r, http.StatusInternalServerError, "500.html", nil)
}

func (s *Server) logError(r *http.Request, message string, err error) {
	logs.LogJSON("ERROR", message, map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
		"error":      err.Error(),
	})
}
