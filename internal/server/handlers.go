package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/export"
	"github.com/sells-group/enrich-cli/internal/ingest"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

// maxUploadBytes caps spreadsheet uploads at 20 MiB.
const maxUploadBytes = 20 << 20

// batchView is the JSON shape returned for a batch. Outcomes are included
// only on single-batch reads.
type batchView struct {
	ID          string           `json:"id"`
	FileName    string           `json:"file_name"`
	Status      string           `json:"status"`
	Counts      model.Counts     `json:"counts"`
	Progress    int              `json:"progress"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Outcomes    []*model.Outcome `json:"outcomes,omitempty"`
}

func summarize(b *model.Batch) batchView {
	return batchView{
		ID:          b.ID,
		FileName:    b.FileName,
		Status:      string(b.Status),
		Counts:      b.Counts(),
		Progress:    b.Progress(),
		Error:       b.Error,
		CreatedAt:   b.CreatedAt,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
	}
}

func detail(b *model.Batch) batchView {
	v := summarize(b)
	v.Outcomes = b.Outcomes
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSourceStatus(w http.ResponseWriter, r *http.Request) {
	mode := "live"
	if s.stubMode {
		mode = "stub"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":    mode,
		"healthy": s.stubMode || s.sourceHealthy(r.Context()),
	})
}

// handleUpload accepts a multipart spreadsheet upload and creates a batch in
// the uploaded state.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	records, report, err := ingest.Parse(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "no usable rows: every row needs a name and an email address")
		return
	}

	b := model.NewBatch(uuid.NewString(), header.Filename, records)
	if err := s.store.CreateBatch(r.Context(), b); err != nil {
		zap.L().Error("create batch", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store batch")
		return
	}

	zap.L().Info("batch uploaded",
		zap.String("batch", b.ID),
		zap.String("file", b.FileName),
		zap.Int("records", len(records)),
		zap.Int("skipped", report.SkippedRows),
	)

	writeJSON(w, http.StatusCreated, map[string]any{
		"batch":  summarize(b),
		"report": report,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.BatchFilter{Status: model.BatchStatus(r.URL.Query().Get("status"))}

	batches, err := s.store.ListBatches(r.Context(), filter)
	if err != nil {
		zap.L().Error("list batches", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list batches")
		return
	}

	views := make([]batchView, len(batches))
	for i := range batches {
		views[i] = summarize(&batches[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": views})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail(b))
}

// handleAnalyze starts asynchronous processing of an uploaded batch. Repeat
// requests for a batch already past the uploaded state get a conflict.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBatch(w, r)
	if !ok {
		return
	}
	if b.Status != model.BatchStatusUploaded {
		writeError(w, http.StatusConflict, "batch is "+string(b.Status))
		return
	}

	o := s.newOrchestrator(b.Records)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		if err := o.Run(s.baseCtx, b.ID); err != nil {
			if errors.Is(err, enrich.ErrBatchNotStartable) {
				return // lost a start race, the other run owns the batch
			}
			zap.L().Error("batch run ended with error",
				zap.String("batch", b.ID),
				zap.Error(err),
			)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     b.ID,
		"status": string(model.BatchStatusAnalyzing),
	})
}

// handleExport streams the batch results as CSV. Only terminal batches can
// be exported.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBatch(w, r)
	if !ok {
		return
	}
	if !b.Status.Terminal() {
		writeError(w, http.StatusConflict, "batch is "+string(b.Status)+", results are not final")
		return
	}

	status, err := export.ParseStatusFilter(r.URL.Query().Get("tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := export.Options{Status: status}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(b, opts)+`"`)
	if err := export.WriteCSV(w, b, opts); err != nil {
		zap.L().Error("export batch", zap.String("batch", b.ID), zap.Error(err))
	}
}

func (s *Server) loadBatch(w http.ResponseWriter, r *http.Request) (*model.Batch, bool) {
	id := chi.URLParam(r, "batchID")
	b, err := s.store.GetBatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "batch "+id+" not found")
			return nil, false
		}
		zap.L().Error("load batch", zap.String("batch", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load batch")
		return nil, false
	}
	return b, true
}
