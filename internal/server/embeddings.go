package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/batch"
	"github.com/vdex/vdex/internal/docmodel"
)

func (s *Server) handleEmbedSingle(w http.ResponseWriter, r *http.Request) {
	var req embedSingleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "document_id %q is not a valid id", req.DocumentID))
		return
	}
	colID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "collection_id %q is not a valid id", req.CollectionID))
		return
	}

	record, err := s.vectors.Embed(r.Context(), docID, colID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, embeddingView{
		ID:           record.ID.String(),
		DocumentID:   record.DocumentID.String(),
		CollectionID: record.CollectionID.String(),
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		writeError(w, r, apperr.New(apperr.Validation, "provider query parameter is required"))
		return
	}
	embedder, err := s.embedders.Get(provider)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models := embedder.ListModels()
	views := make([]modelView, len(models))
	for i, m := range models {
		views[i] = modelView{Name: m.Name, Size: m.Dim}
	}
	writeJSON(w, http.StatusOK, views)
}

// handleEmbedBatch handles POST /embeddings/batch. It submits one batch job
// to the executor and streams each document's progress back as
// Server-Sent Events until every submitted document has reported a terminal
// status (done or failed) or the client disconnects.
func (s *Server) handleEmbedBatch(w http.ResponseWriter, r *http.Request) {
	var req embedBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	colID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		writeError(w, r, apperr.New(apperr.Validation, "collection_id %q is not a valid id", req.CollectionID))
		return
	}
	add, err := parseUUIDs(req.Add)
	if err != nil {
		writeError(w, r, err)
		return
	}
	remove, err := parseUUIDs(req.Remove)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total := len(add) + len(remove)
	if total == 0 {
		writeError(w, r, apperr.New(apperr.Validation, "batch request must name at least one document"))
		return
	}

	// Each document reports a processing event and then a terminal one.
	events := make(chan docmodel.BatchEvent, 2*total)
	job := batch.Job{CollectionID: colID, Add: add, Remove: remove, Events: events}
	if err := s.executor.Submit(job); err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, apperr.New(apperr.Validation, "streaming not supported by this client connection"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.metrics.batchStreamsActive.Inc()
	defer s.metrics.batchStreamsActive.Dec()

	sw := &sseWriter{w: w, flusher: flusher}
	terminal := 0
	for terminal < total {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Status == docmodel.BatchDone || ev.Status == docmodel.BatchFailed {
				terminal++
			}
			writeBatchEvent(sw, ev)
		case <-r.Context().Done():
			return
		}
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "%q is not a valid id", s)
		}
		ids[i] = id
	}
	return ids, nil
}

func writeBatchEvent(sw *sseWriter, ev docmodel.BatchEvent) {
	view := batchEventView{DocumentID: ev.DocumentID.String(), Status: ev.Status.String(), Reason: ev.Reason}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	_, _ = sw.Write(data)
}
