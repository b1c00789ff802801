package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/conneroisu/mobilcoder/internal/dialect"
	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/project"
	"github.com/conneroisu/mobilcoder/internal/types"
	"github.com/conneroisu/mobilcoder/internal/validation"
	"github.com/conneroisu/mobilcoder/internal/version"
)

// maxBodySize bounds request bodies; a unit's code is the largest payload.
const maxBodySize = 4 << 20

type nameRequest struct {
	Name string `json:"name"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// projectView is the JSON shape of the active project.
type projectView struct {
	Name      string            `json:"name"`
	Persisted bool              `json:"persisted"`
	Selection dialect.Selection `json:"selection"`
	Units     types.ProjectInfo `json:"units"`
	Labels    map[string]string `json:"labels"`
	Badge     dialect.Badge     `json:"badge"`
}

func viewOf(p *project.Project) projectView {
	info := p.Info()
	labels := make(map[string]string, 3)
	for _, role := range []string{"html", "css", "js"} {
		labels[role] = dialect.PaneLabel(role, info.Markup(), info.Style(), info.Script())
	}
	return projectView{
		Name:      p.Name(),
		Persisted: p.Persisted(),
		Selection: info.Selection(),
		Units:     info,
		Labels:    labels,
		Badge:     dialect.BadgeFor(info.Script()),
	}
}

// writeJSONResponse writes a JSON response
func (s *PreviewServer) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(context.Background(), err, "Failed to encode JSON response")
	}
}

// writeError maps a typed error onto a status code. Validation messages
// are meant for the user and are passed through verbatim.
func (s *PreviewServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.Handle(r.Context(), err)

	status := http.StatusInternalServerError
	message := "internal error"
	code := errors.ErrCodeInternalError

	var pe *errors.PlaygroundError
	if stderrors.As(err, &pe) {
		code = pe.Code
		switch {
		case errors.IsValidation(err):
			status, message = http.StatusBadRequest, pe.Message
		case errors.IsNotFound(err):
			status, message = http.StatusNotFound, pe.Error()
		case errors.IsSecurityError(err):
			status, message = http.StatusForbidden, "forbidden"
		case errors.TypeOf(err) == errors.ErrorTypeNetwork:
			status, message = http.StatusBadGateway, pe.Error()
		case errors.IsStorage(err):
			message = pe.Message
		}
	}
	s.writeJSONResponse(w, status, map[string]string{"error": message, "code": code})
}

func (s *PreviewServer) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSONResponse(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
			"code":  errors.ErrCodeInternalError,
		})
		return false
	}
	return true
}

func (s *PreviewServer) active(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	p := s.manager.Active()
	if p == nil {
		s.writeError(w, r, errors.ErrNoActiveProject())
		return nil, false
	}
	return p, true
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	theme, err := s.manager.Theme(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page := hostPage(pageState{
		Theme:       theme,
		Registry:    s.config.Registry.URL,
		ReactURL:    s.config.Compilers.ReactURL,
		ReactDOMURL: s.config.Compilers.ReactDOMURL,
		Version:     version.Get().Short(),
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "Rendering host page failed")
	}
}

func (s *PreviewServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	doc, revision := s.renderer.Frame().Document()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Revision", strconv.FormatUint(revision, 10))
	_, _ = w.Write([]byte(doc))
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   info,
		"release":   info.IsRelease(),
	})
}

func (s *PreviewServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.manager.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, list)
}

func (s *PreviewServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.manager.Create(r.Context(), validation.SanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, viewOf(p))
}

func (s *PreviewServer) handleOpenPlain(w http.ResponseWriter, r *http.Request) {
	p := s.manager.OpenPlain(r.Context())
	s.writeJSONResponse(w, http.StatusOK, viewOf(p))
}

func (s *PreviewServer) handleOpenProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.manager.Open(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, viewOf(p))
}

func (s *PreviewServer) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	from := r.PathValue("name")
	to := validation.SanitizeInput(req.Name)
	if err := s.manager.Rename(r.Context(), from, to); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]string{"from": from, "name": to})
}

func (s *PreviewServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	removed, err := s.manager.Delete(r.Context(), r.PathValue("name"), confirmed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]bool{"deleted": removed})
}

func (s *PreviewServer) handleActive(w http.ResponseWriter, r *http.Request) {
	p, ok := s.active(w, r)
	if !ok {
		return
	}
	s.writeJSONResponse(w, http.StatusOK, viewOf(p))
}

func (s *PreviewServer) handlePromote(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.manager.Promote(r.Context(), validation.SanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, viewOf(p))
}

func (s *PreviewServer) handleSetUnit(w http.ResponseWriter, r *http.Request) {
	role, err := types.ParseRole(r.PathValue("role"))
	if err != nil {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRole, err.Error()))
		return
	}
	var req codeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.manager.SetCode(r.Context(), role, req.Code); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *PreviewServer) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var sel dialect.Selection
	if !s.decode(w, r, &sel) {
		return
	}
	if err := s.manager.SetSelection(r.Context(), sel); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, ok := s.active(w, r)
	if !ok {
		return
	}
	s.writeJSONResponse(w, http.StatusOK, viewOf(p))
}

func (s *PreviewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, ok := s.active(w, r)
	if !ok {
		return
	}
	out, err := s.renderer.Render(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, out)
}

func (s *PreviewServer) handleCompiled(w http.ResponseWriter, r *http.Request) {
	p, ok := s.active(w, r)
	if !ok {
		return
	}
	res, err := p.Compiled(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dialect.FileName(p.Name())))
	w.Header().Set("X-Compile-Diagnostics", strconv.Itoa(len(res.Diagnostics)))
	_, _ = w.Write([]byte(res.HTML))
}

func (s *PreviewServer) handleProbe(w http.ResponseWriter, r *http.Request) {
	report, err := s.prober.Probe(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, report)
}

func (s *PreviewServer) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.manager.Theme(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, themeRequest{Theme: theme})
}

func (s *PreviewServer) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.manager.SetTheme(r.Context(), req.Theme); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, req)
}

func (s *PreviewServer) handleStats(w http.ResponseWriter, r *http.Request) {
	_, revision := s.renderer.Frame().Document()
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"build":          s.pipeline.Metrics(),
		"frame_revision": revision,
		"clients":        s.hub.GetConnectedClients(),
	})
}
