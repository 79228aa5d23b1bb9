package database

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/rmr-labs/rmr-go/internal/platform/httpserver"
)

// App serves aggregated projects over HTTP. It holds the projects in
// memory and never writes: the browser is strictly read-only.
type App struct {
	logger *slog.Logger

	mu       sync.RWMutex
	projects map[string]Project
}

func NewApp(logger *slog.Logger, projects ...Project) *App {
	app := &App{
		logger:   logger,
		projects: make(map[string]Project, len(projects)),
	}
	for _, p := range projects {
		app.projects[p.Name] = p
	}
	return app
}

// AddProject replaces the project with the same name.
func (a *App) AddProject(p Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.projects[p.Name] = p
	return nil
}

func (a *App) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /projects", a.listProjects)
	mux.HandleFunc("GET /projects/{name}", a.getProject)
	mux.HandleFunc("GET /projects/{name}/rows", a.listRows)
	mux.HandleFunc("GET /projects/{name}/rows/{uid}", a.getRow)
}

func (a *App) project(name string) (Project, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.projects[name]
	return p, ok
}

func (a *App) listProjects(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		Name  string `json:"name"`
		Title string `json:"title"`
		Rows  int    `json:"rows"`
	}

	a.mu.RLock()
	summaries := make([]summary, 0, len(a.projects))
	for _, p := range a.projects {
		summaries = append(summaries, summary{Name: p.Name, Title: p.Title, Rows: len(p.Rows)})
	}
	a.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{"projects": summaries})
}

func (a *App) getProject(w http.ResponseWriter, r *http.Request) {
	p, ok := a.project(r.PathValue("name"))
	if !ok {
		httpserver.WriteError(w, http.StatusNotFound, "project_not_found")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"name":             p.Name,
		"title":            p.Title,
		"uid_key":          p.UIDKey,
		"default_columns":  p.DefaultColumns,
		"key_descriptions": p.KeyDescriptions,
		"rows":             len(p.Rows),
	})
}

func (a *App) listRows(w http.ResponseWriter, r *http.Request) {
	p, ok := a.project(r.PathValue("name"))
	if !ok {
		httpserver.WriteError(w, http.StatusNotFound, "project_not_found")
		return
	}

	rows, err := p.Query(r.URL.Query().Get("query"))
	if err != nil {
		httpserver.WriteError(w, http.StatusBadRequest, "invalid_query")
		return
	}

	type rowSummary struct {
		UID       string         `json:"uid"`
		Formula   string         `json:"formula"`
		Folder    string         `json:"folder"`
		KeyValues map[string]any `json:"key_values"`
	}
	summaries := make([]rowSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, rowSummary{
			UID:       row.UID,
			Formula:   row.Formula,
			Folder:    row.Folder,
			KeyValues: row.KeyValues,
		})
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{"rows": summaries})
}

func (a *App) getRow(w http.ResponseWriter, r *http.Request) {
	p, ok := a.project(r.PathValue("name"))
	if !ok {
		httpserver.WriteError(w, http.StatusNotFound, "project_not_found")
		return
	}
	row, ok := p.Get(r.PathValue("uid"))
	if !ok {
		httpserver.WriteError(w, http.StatusNotFound, "row_not_found")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, row)
}
