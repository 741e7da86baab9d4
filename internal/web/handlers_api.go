package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mashupctl/internal/catalog"
	"mashupctl/internal/deploy"
	"mashupctl/internal/mashup"
	"mashupctl/internal/store"
	"mashupctl/internal/thingworx"
)

// DefinitionView is the catalog listing entry.
type DefinitionView struct {
	Name        string       `json:"name"`
	Kind        catalog.Kind `json:"kind"`
	Description string       `json:"description,omitempty"`
	DeleteFirst bool         `json:"delete_first,omitempty"`
	Template    string       `json:"template,omitempty"`
	Source      string       `json:"source"`
}

func viewOf(d *catalog.Definition) DefinitionView {
	return DefinitionView{
		Name:        d.Name,
		Kind:        d.Kind,
		Description: d.Description,
		DeleteFirst: d.DeleteFirst,
		Template:    d.Template,
		Source:      d.Source,
	}
}

func (s *Server) handleAPIListCatalog(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(r.URL.Query().Get("kind"))
	defs := s.registry.All(kind)
	views := make([]DefinitionView, 0, len(defs))
	for _, d := range defs {
		views = append(views, viewOf(d))
	}
	s.writeJSON(w, http.StatusOK, views)
}

type definitionDetail struct {
	DefinitionView
	Entity   *mashup.Entity       `json:"entity,omitempty"`
	Content  *mashup.Content      `json:"content,omitempty"`
	Thing    *mashup.ThingRequest `json:"thing,omitempty"`
	Problems []string             `json:"problems,omitempty"`
}

func (s *Server) handleAPIGetDefinition(w http.ResponseWriter, r *http.Request) {
	def := s.registry.Lookup(r.PathValue("name"))
	if def == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "definition not found"})
		return
	}

	detail := definitionDetail{DefinitionView: viewOf(def)}
	switch def.Kind {
	case catalog.KindMashup:
		e, err := def.Entity()
		if err != nil {
			s.logger.Error("build entity", "name", def.Name, "err", err)
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		c, err := e.Content()
		if err != nil {
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		detail.Entity = e
		detail.Content = &c
		for _, p := range mashup.Validate(c) {
			detail.Problems = append(detail.Problems, p.String())
		}
	case catalog.KindThing:
		req, err := def.ThingRequest()
		if err != nil {
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		detail.Thing = &req
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAPIPushMashup(w http.ResponseWriter, r *http.Request) {
	if !s.requireDeployer(w) {
		return
	}
	def := s.registry.Lookup(r.PathValue("name"))
	if def == nil || def.Kind != catalog.KindMashup {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "mashup definition not found"})
		return
	}

	var opts deploy.Options
	if v := r.URL.Query().Get("delete_first"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delete_first must be a boolean"})
			return
		}
		opts.DeleteFirst = &b
	}

	s.deployMu.Lock()
	res, err := s.deployer.PushMashup(r.Context(), def, opts)
	s.deployMu.Unlock()
	if err != nil {
		s.writeUpstreamError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPICreateThing(w http.ResponseWriter, r *http.Request) {
	if !s.requireDeployer(w) {
		return
	}
	def := s.registry.Lookup(r.PathValue("name"))
	if def == nil || def.Kind != catalog.KindThing {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "thing definition not found"})
		return
	}

	s.deployMu.Lock()
	res, err := s.deployer.CreateThing(r.Context(), def)
	s.deployMu.Unlock()
	if err != nil {
		var partial any
		if res != nil {
			partial = res
		}
		s.writeUpstreamError(w, err, partial)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPIInspectMashup(w http.ResponseWriter, r *http.Request) {
	if !s.requireDeployer(w) {
		return
	}
	name := r.PathValue("name")
	ins, err := s.deployer.InspectMashup(r.Context(), name, deploy.InspectOptions{})
	if err != nil {
		s.writeUpstreamError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":    ins.Name,
		"widgets": ins.Content.WidgetCount(),
		"content": json.RawMessage(ins.Raw),
	})
}

func (s *Server) handleAPIListTemplates(w http.ResponseWriter, r *http.Request) {
	if !s.requireDeployer(w) {
		return
	}
	filter := "Mashup"
	if q := r.URL.Query(); q.Has("filter") {
		filter = q.Get("filter")
	}
	names, err := s.deployer.ListTemplates(r.Context(), filter)
	if err != nil {
		s.writeUpstreamError(w, err, nil)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	list, err := s.history.ListDeployments(r.URL.Query().Get("name"), limit)
	if err != nil {
		s.logger.Error("list history", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if list == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAPIClearHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	name := r.PathValue("name")
	s.deployMu.Lock()
	n, err := s.history.DeleteDeployments(name)
	s.deployMu.Unlock()
	if err != nil {
		s.logger.Error("clear history", "name", name, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"name": name, "removed": n})
}

func (s *Server) handleAPIListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	list, err := s.history.ListSnapshots()
	if err != nil {
		s.logger.Error("list snapshots", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if list == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAPIGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	snap, err := s.history.GetSnapshot(r.PathValue("name"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot for this mashup"})
		return
	}
	if err != nil {
		s.logger.Error("get snapshot", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.history == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history store not configured"})
		return false
	}
	return true
}

func (s *Server) requireDeployer(w http.ResponseWriter) bool {
	if s.deployer == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "platform connection not configured"})
		return false
	}
	return true
}

// upstreamError is the body returned when the platform rejected a call.
type upstreamError struct {
	Error      string `json:"error"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"status_text,omitempty"`
	Body       string `json:"body,omitempty"`
	Result     any    `json:"result,omitempty"`
}

// writeUpstreamError maps a platform failure onto a response: a platform
// 404 stays 404, other platform answers and transport errors become 502.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error, partial any) {
	body := upstreamError{Error: err.Error(), Result: partial}
	code := http.StatusBadGateway
	var apiErr *thingworx.APIError
	if errors.As(err, &apiErr) {
		body.Status = apiErr.StatusCode
		body.StatusText = apiErr.Status
		body.Body = apiErr.Body
		if apiErr.StatusCode == http.StatusNotFound {
			code = http.StatusNotFound
		}
	}
	s.logger.Warn("platform call failed", "err", err)
	s.writeJSON(w, code, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writeJSON encode failed", "err", err)
	}
}
