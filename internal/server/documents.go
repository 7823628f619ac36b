package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// maxUploadBytes caps the total size of a multipart upload request body.
const maxUploadBytes = 256 << 20 // 256 MiB

func parsePathUUID(r *http.Request, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(field))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Validation, "%q is not a valid id", r.PathValue(field))
	}
	return id, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := s.documents.List(r.Context(), docmodel.DefaultPage(limit, offset))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]documentView, len(docs))
	for i, d := range docs {
		views[i] = toDocumentView(d)
	}
	writeJSON(w, http.StatusOK, views)
}

// handleUploadDocuments handles POST /documents, a multipart form with one
// field per uploaded file. Per-field failures are collected rather than
// aborting the whole request, so a batch of N files can partially succeed.
func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, apperr.Wrap(apperr.Validation, err, "invalid multipart form"))
		return
	}
	force := r.URL.Query().Get("force") == "true"

	resp := uploadResponse{Errors: map[string][]string{}}
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			file, err := fh.Open()
			if err != nil {
				resp.Errors[field] = append(resp.Errors[field], err.Error())
				continue
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				resp.Errors[field] = append(resp.Errors[field], err.Error())
				continue
			}

			doc, err := s.documents.Upload(r.Context(), fh.Filename, data, force)
			if err != nil {
				resp.Errors[field] = append(resp.Errors[field], err.Error())
				continue
			}
			resp.Documents = append(resp.Documents, toDocumentView(doc))
		}
	}
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentView(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.documents.Delete(r.Context(), id, s.stores); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleChunkPreview(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req chunkPreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cfg := toChunkConfig(req.Chunker)
	if err := cfg.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	chunks, err := s.documents.PreviewChunk(r.Context(), id, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleParsePreview(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req parseConfigView
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text, err := s.documents.PreviewParse(r.Context(), id, toParseConfig(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleUpdateDocumentConfig(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req configUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Parser != nil {
		if _, err := s.documents.UpdateParseConfig(r.Context(), id, toParseConfig(*req.Parser)); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Chunker != nil {
		if _, err := s.documents.UpdateChunkConfig(r.Context(), id, toChunkConfig(*req.Chunker)); err != nil {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSyncDocuments(w http.ResponseWriter, r *http.Request) {
	src := r.PathValue("src")
	if src == "" {
		writeError(w, r, apperr.New(apperr.Validation, "sync source must not be empty"))
		return
	}
	if err := s.documents.Sync(r.Context(), src, s.stores); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
