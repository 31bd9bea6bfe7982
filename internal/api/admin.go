package api

import (
	"io"
	"net/http"

	"github.com/joescharf/folio/internal/github"
	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/portfolio"
)

// --- Config ---

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cfg.Config(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) exportConfig(w http.ResponseWriter, r *http.Request) {
	text, err := s.cfg.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio-config.json"`)
	_, _ = io.WriteString(w, text)
}

func (s *Server) importConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if err := s.cfg.Import(r.Context(), string(body)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.getConfig(w, r)
}

func (s *Server) resetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cfg.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// --- Repositories ---

func (s *Server) selectRepo(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.AddSelectedRepo(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.getConfig(w, r)
}

func (s *Server) unselectRepo(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.RemoveSelectedRepo(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.getConfig(w, r)
}

func (s *Server) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	on, err := s.cfg.ToggleFeaturedRepo(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "featured": on})
}

func (s *Server) toggleHidden(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	on, err := s.cfg.ToggleHiddenRepo(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "hidden": on})
}

func (s *Server) toggleCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	on, err := s.cfg.ToggleCategory(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": name, "enabled": on})
}

func (s *Server) listRepos(w http.ResponseWriter, r *http.Request) {
	res, err := s.syncer.AllRepos(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) repoDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.syncer.RepoDetail(r.Context(), r.PathValue("name"))
	switch {
	case github.IsNotFound(err):
		writeError(w, http.StatusNotFound, "repository not found")
	case github.IsRateLimit(err):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) autoSelect(w http.ResponseWriter, r *http.Request) {
	criteria := portfolio.DefaultSelectionCriteria()
	if !decodeBody(w, r, &criteria, true) {
		return
	}
	names, err := s.syncer.AutoSelect(r.Context(), criteria)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": names})
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	res, err := s.syncer.Sync(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Custom projects ---

func (s *Server) addCustom(w http.ResponseWriter, r *http.Request) {
	var p models.Repository
	if !decodeBody(w, r, &p, false) {
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if p.Category == "" {
		p.Category = models.CategoryWeb
	}
	if p.Status == "" {
		p.Status = models.StatusCompleted
	}
	stored, err := s.cfg.AddCustomProject(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) removeCustom(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.RemoveCustomProject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Display and sharing ---

func (s *Server) updateDisplay(w http.ResponseWriter, r *http.Request) {
	var patch models.DisplaySettingsPatch
	if !decodeBody(w, r, &patch, false) {
		return
	}
	ds, err := s.cfg.UpdateDisplaySettings(r.Context(), patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) shareURL(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	link, err := s.cfg.GenerateSyncURL(r.Context(), base)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}
