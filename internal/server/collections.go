package server

import (
	"net/http"

	"github.com/vdex/vdex/internal/docmodel"
	"github.com/vdex/vdex/internal/service"
)

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.vectors.ListCollections(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]collectionView, len(cols))
	for i, c := range cols {
		views[i] = toCollectionView(c)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	col, err := s.vectors.CreateCollection(r.Context(), service.CreateCollectionRequest{
		Name:              req.Name,
		EmbeddingProvider: req.EmbeddingProvider,
		Model:             req.Model,
		VectorProvider:    req.VectorProvider,
		Distance:          req.Distance,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionView(col))
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	col, err := s.vectors.GetCollection(r.Context(), docmodel.CollectionRef{ID: id})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionView(col))
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.vectors.DeleteCollection(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
