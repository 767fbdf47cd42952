package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/ml"
	"inflation-dashboard/internal/narrative"
	"inflation-dashboard/internal/pipeline"
	"inflation-dashboard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// handlePage runs the pipeline and renders the dashboard. A POST carries an
// optional upload in the multipart field "file".
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var upload *pipeline.UploadInput
	if r.Method == http.MethodPost {
		upload = s.readUpload(w, r)
	}

	res := s.runner.Run(r.Context(), upload)

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, newPageView(res, s.settings)); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("Client went away during render")
	}

	s.metricsWrapper.PageRenders().Inc()
	s.metricsWrapper.RenderDuration().Observe(time.Since(start).Seconds())
}

// readUpload extracts the "file" field. It returns nil when no file was sent.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) *pipeline.UploadInput {
	r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxUploadBytes)

	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/csv") {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "upload.csv"
		}
		content, err := io.ReadAll(r.Body)
		if err != nil {
			return &pipeline.UploadInput{Name: name, Err: uploadReadError(err, s.settings.MaxUploadBytes)}
		}
		return &pipeline.UploadInput{Name: name, Content: content}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}
		return &pipeline.UploadInput{Name: "upload", Err: uploadReadError(err, s.settings.MaxUploadBytes)}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return &pipeline.UploadInput{Name: header.Filename, Err: uploadReadError(err, s.settings.MaxUploadBytes)}
	}
	return &pipeline.UploadInput{Name: header.Filename, Content: content}
}

func uploadReadError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("the uploaded file exceeds the %d byte limit", limit)
	}
	return fmt.Errorf("could not read the uploaded file: %w", err)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	content, err := s.runner.Download(name)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnknownDownload) {
			http.NotFound(w, r)
			return
		}
		log.Warn().Err(err).Str("file", name).Msg("Download unavailable")
		http.Error(w, "Download unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeCSV(w, name, content)
}

func (s *Server) handleUploadDownload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		http.NotFound(w, r)
		return
	}

	rec, err := s.uploads.GetUpload(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Msg("Failed to read stored upload")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeCSV(w, common.FileUserPredictions, rec.CSV)
}

func writeCSV(w http.ResponseWriter, name string, content []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(content)
}

// PredictResponse is the body of a successful /api/predict call.
type PredictResponse struct {
	Name        string    `json:"name"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	Predictions []float64 `json:"predictions"`
	Download    string    `json:"download,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	upload := s.readUpload(w, r)
	if upload == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `no file in form field "file"`})
		return
	}
	if upload.Err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: upload.Err.Error()})
		return
	}

	sec, err := s.runner.Score(r.Context(), *upload)
	if err != nil {
		status := http.StatusServiceUnavailable
		if !errors.Is(err, ml.ErrModelUnavailable) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	if sec.Err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: sec.Err.Error()})
		return
	}

	resp := PredictResponse{
		Name:        sec.Name,
		Rows:        sec.Rows,
		Predictions: sec.Predictions,
	}
	if len(sec.Preview) > 0 {
		resp.Columns = sec.Preview[0]
	}
	if sec.DownloadID != "" {
		resp.Download = "/download/uploads/" + sec.DownloadID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res := s.runner.Run(r.Context(), nil)
	writeJSON(w, http.StatusOK, res.Summary())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// NarrativeFrame is one websocket message of the typing stream.
type NarrativeFrame struct {
	Section string `json:"section"`
	Text    string `json:"text"`
	Done    bool   `json:"done"`
}

func (s *Server) handleNarrative(w http.ResponseWriter, r *http.Request) {
	section := narrative.Section(r.URL.Query().Get("section"))
	text, ok := narrative.Text(section)
	if !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	s.metricsWrapper.NarrativeStreams().Inc()

	err = s.typer.Stream(r.Context(), text, func(prefix string) error {
		return conn.WriteJSON(NarrativeFrame{Section: string(section), Text: prefix})
	})
	if err != nil {
		log.Debug().Err(err).Str("section", string(section)).Msg("Narrative stream interrupted")
		return
	}

	if err := conn.WriteJSON(NarrativeFrame{Section: string(section), Text: text, Done: true}); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
