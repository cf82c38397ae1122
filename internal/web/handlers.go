package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strconv"

	"github.com/nieveai/content-crew/internal/config"
	"github.com/nieveai/content-crew/internal/database"
	"github.com/nieveai/content-crew/internal/logging"
	m "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/render"
)

const markdownContentType = "text/markdown; charset=utf-8"

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type page struct {
	Topic       string
	Temperature float64
	ModelID     string

	Error       string
	ResultHTML  template.HTML
	DownloadURL string
	Filename    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, &page{Temperature: m.DefaultTemperature})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, &page{Temperature: m.DefaultTemperature, Error: err.Error()})
		return
	}
	p := &page{
		Topic:       r.PostForm.Get("topic"),
		Temperature: config.ParseTemperature(r.PostForm.Get("temperature")),
	}

	run, err := s.gen.Generate(r.Context(), p.Topic, p.Temperature)
	if err != nil {
		p.Error = err.Error()
		s.renderPage(w, http.StatusBadGateway, p)
		return
	}

	html, err := render.ToHTML(run.Content)
	if err != nil {
		p.Error = err.Error()
		s.renderPage(w, http.StatusInternalServerError, p)
		return
	}
	p.ResultHTML = template.HTML(html)
	p.DownloadURL = "/runs/" + run.ID + "/download"
	p.Filename = render.DeriveFilename(run.Topic)
	s.renderPage(w, http.StatusOK, p)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.PathValue("id"))
	if errors.Is(err, database.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run.Status != m.RunCompleted {
		http.Error(w, fmt.Sprintf("run %s is %s", run.ID, run.Status), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", markdownContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": render.DeriveFilename(run.Topic),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(run.Content))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = min(max(parsed, 1), maxRunsLimit)
		}
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*m.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "model": s.ModelID})
}

func (s *Server) renderPage(w http.ResponseWriter, status int, p *page) {
	p.ModelID = s.ModelID
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, p); err != nil {
		logging.Logger().Error("Failed to render page", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
