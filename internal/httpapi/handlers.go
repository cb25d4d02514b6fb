package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/mediasub/autosub/internal/jobs"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory; the rest spills to temp files.
const maxUploadMemory = 32 << 20

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.store.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	media, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer media.Close()

	lang := r.FormValue("language")
	if lang == "" {
		lang = jobs.AutoLanguage
	}
	if lang != jobs.AutoLanguage {
		if _, err := language.Parse(lang); err != nil {
			writeError(w, http.StatusBadRequest, "invalid language: "+lang)
			return
		}
	}

	burnIn := true
	if raw := r.FormValue("burn_in"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid burn_in: "+raw)
			return
		}
		burnIn = parsed
	}

	job, err := s.dispatcher.Submit(media, header.Filename, jobs.Options{
		Language: lang,
		BurnIn:   burnIn,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// handleJob routes /api/v1/jobs/{id} and /api/v1/jobs/{id}/{artifact}.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	rest = strings.TrimSuffix(rest, "/")
	id, artifact, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	switch artifact {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.handleStatus(w, r, id)
		case http.MethodDelete:
			s.handleDelete(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "subtitle", "video", "transcript":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleArtifact(w, r, id, artifact)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, id string) {
	job, err := s.store.Read(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDelete(w http.ResponseWriter, _ *http.Request, id string) {
	if err := s.dispatcher.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request, id, artifact string) {
	var (
		path string
		err  error
	)
	switch artifact {
	case "subtitle":
		path, err = s.store.ResolveSubtitle(id)
	case "video":
		path, err = s.store.ResolveRenderedVideo(id)
	case "transcript":
		path, err = s.store.ResolveTranscript(id)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if artifact == "transcript" {
		text, err := os.ReadFile(path)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"text": string(text),
		})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
