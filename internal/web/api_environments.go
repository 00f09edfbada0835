package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/envvar"
)

// environmentResponse is the JSON shape returned for an environment.
type environmentResponse struct {
	envvar.Environment
	Name string `json:"name"`
}

type createEnvironmentRequest struct {
	BuildID          string `json:"build_id"`
	SourceBranch     string `json:"source_branch"`
	PullRequestTitle string `json:"pull_request_title"`
	Hostname         string `json:"hostname"`
	HasFunctions     bool   `json:"has_functions"`
}

// variablesPayload mirrors a key/value resource: the environment id plus
// a name → value map.
type variablesPayload struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

func toEnvironmentResponse(e envvar.Environment) environmentResponse {
	return environmentResponse{Environment: e, Name: e.DisplayName()}
}

// handleEnvironments handles GET and POST /api/v1/environments.
func (s *Server) handleEnvironments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listEnvironments(w, r)
	case http.MethodPost:
		s.createEnvironment(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleEnvironment handles /api/v1/environments/{id} and
// /api/v1/environments/{id}/variables.
func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/environments/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "environment id required")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.getEnvironment(w, r, id)
		case http.MethodDelete:
			s.deleteEnvironment(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "variables":
		switch r.Method {
		case http.MethodGet:
			s.getVariables(w, r, id)
		case http.MethodPut:
			s.putVariables(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) listEnvironments(w http.ResponseWriter, r *http.Request) {
	envs := s.store.ListEnvironments()
	resp := make([]environmentResponse, 0, len(envs))
	for _, e := range envs {
		resp = append(resp, toEnvironmentResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getEnvironment(w http.ResponseWriter, r *http.Request, id string) {
	env, err := s.store.GetEnvironment(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnvironmentResponse(env))
}

func (s *Server) createEnvironment(w http.ResponseWriter, r *http.Request) {
	if s.store.ReadOnly() {
		writeError(w, http.StatusForbidden, config.ErrReadOnly.Error())
		return
	}
	var req createEnvironmentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	env, err := s.store.AddEnvironment(envvar.Environment{
		BuildID:          req.BuildID,
		SourceBranch:     req.SourceBranch,
		PullRequestTitle: req.PullRequestTitle,
		Hostname:         req.Hostname,
		HasFunctions:     req.HasFunctions,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.WithField("environment", env.ID).Info("environment created")
	writeJSON(w, http.StatusCreated, toEnvironmentResponse(env))
}

func (s *Server) deleteEnvironment(w http.ResponseWriter, r *http.Request, id string) {
	if s.store.ReadOnly() {
		writeError(w, http.StatusForbidden, config.ErrReadOnly.Error())
		return
	}
	if err := s.store.DeleteEnvironment(id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logger.WithField("environment", id).Info("environment deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) getVariables(w http.ResponseWriter, r *http.Request, id string) {
	vars, err := s.store.GetVariables(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, variablesPayload{ID: id, Properties: vars})
}

func (s *Server) putVariables(w http.ResponseWriter, r *http.Request, id string) {
	if s.store.ReadOnly() {
		writeError(w, http.StatusForbidden, config.ErrReadOnly.Error())
		return
	}
	var req variablesPayload
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Properties == nil {
		req.Properties = map[string]string{}
	}
	for name := range req.Properties {
		if strings.TrimSpace(name) == "" {
			writeError(w, http.StatusBadRequest, "variable name cannot be empty")
			return
		}
	}
	if err := s.store.SetVariables(id, req.Properties); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logger.WithField("environment", id).WithField("count", len(req.Properties)).Info("variables saved")
	s.getVariables(w, r, id)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, config.ErrEnvironmentNotFound):
		writeError(w, http.StatusNotFound, "environment not found")
	case errors.Is(err, config.ErrProductionLocked):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
