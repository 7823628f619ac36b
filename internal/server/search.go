package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// defaultSearchLimit is used when a search request omits limit.
const defaultSearchLimit = 10

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Query == "" {
		writeError(w, r, apperr.New(apperr.Validation, "query must not be empty"))
		return
	}

	ref := docmodel.CollectionRef{Name: req.Name, Provider: req.Provider}
	if req.CollectionID != "" {
		id, err := uuid.Parse(req.CollectionID)
		if err != nil {
			writeError(w, r, apperr.New(apperr.Validation, "collection_id %q is not a valid id", req.CollectionID))
			return
		}
		ref = docmodel.CollectionRef{ID: id}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.vectors.Search(r.Context(), ref, req.Query, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
