package service

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/repository/postgres"
	"github.com/vdex/vdex/internal/vectorstore"
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// VectorService owns collections, embedding, and search.
type VectorService struct {
	repo      postgres.Repository
	embedders *embed.Registry
	stores    *vectorstore.Registry
	documents *DocumentService
}

// NewVectorService wires a VectorService from its collaborators.
func NewVectorService(repo postgres.Repository, embedders *embed.Registry, stores *vectorstore.Registry, documents *DocumentService) *VectorService {
	return &VectorService{repo: repo, embedders: embedders, stores: stores, documents: documents}
}

// CreateCollectionRequest is the validated payload for CreateCollection.
type CreateCollectionRequest struct {
	Name              string
	EmbeddingProvider string
	Model             string
	VectorProvider    string
	Distance          string
}

// CreateCollection validates name and model, resolves the model's
// dimension from the named embedding provider, and atomically inserts the
// repository row and creates the backing vector-store collection.
func (s *VectorService) CreateCollection(ctx context.Context, req CreateCollectionRequest) (docmodel.Collection, error) {
	if req.Name == "" || !collectionNamePattern.MatchString(req.Name) {
		return docmodel.Collection{}, apperr.New(apperr.Validation, "collection name %q must be nonempty alphanumeric plus '_'/'-'", req.Name)
	}
	embedder, err := s.embedders.Get(req.EmbeddingProvider)
	if err != nil {
		return docmodel.Collection{}, err
	}
	dim, ok := modelDim(embedder, req.Model)
	if !ok {
		return docmodel.Collection{}, apperr.New(apperr.InvalidEmbeddingModel, "provider %q does not serve model %q", req.EmbeddingProvider, req.Model)
	}
	store, err := s.stores.Get(req.VectorProvider)
	if err != nil {
		return docmodel.Collection{}, err
	}
	distance := req.Distance
	if distance == "" {
		distance = "cosine"
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return docmodel.Collection{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	col, err := s.repo.CreateCollection(ctx, tx, docmodel.Collection{
		Name:              req.Name,
		Model:             req.Model,
		EmbeddingProvider: req.EmbeddingProvider,
		VectorProvider:    req.VectorProvider,
		Size:              dim,
	})
	if err != nil {
		return docmodel.Collection{}, err
	}
	if err := store.CreateCollection(ctx, req.Name, uint64(dim), distance); err != nil {
		return docmodel.Collection{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return docmodel.Collection{}, err
	}
	committed = true
	return col, nil
}

// CreateDefaultCollection idempotently ensures cfg's well-known default
// collection exists, ignoring AlreadyExists from either store.
func (s *VectorService) CreateDefaultCollection(ctx context.Context, req CreateCollectionRequest) error {
	_, err := s.CreateCollection(ctx, req)
	if err != nil && apperr.KindOf(err) != apperr.AlreadyExists {
		return err
	}
	return nil
}

// ListCollections returns every persisted collection.
func (s *VectorService) ListCollections(ctx context.Context) ([]docmodel.Collection, error) {
	return s.repo.ListCollections(ctx, nil)
}

// GetCollection resolves a collection by id or by (name, provider).
func (s *VectorService) GetCollection(ctx context.Context, ref docmodel.CollectionRef) (docmodel.Collection, error) {
	return s.repo.GetCollection(ctx, nil, ref)
}

// DeleteCollection removes a collection's repository row (cascading its
// embedding rows) and its backing vector-store collection, transactionally.
func (s *VectorService) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	col, err := s.repo.GetCollection(ctx, nil, docmodel.CollectionRef{ID: id})
	if err != nil {
		return err
	}
	store, err := s.stores.Get(col.VectorProvider)
	if err != nil {
		return err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := s.repo.DeleteCollection(ctx, tx, id); err != nil {
		return err
	}
	if err := store.DeleteCollection(ctx, col.Name); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

// Embed parses, chunks, and embeds documentID's content into collectionID,
// rejecting a duplicate (document, collection) pair.
func (s *VectorService) Embed(ctx context.Context, documentID, collectionID uuid.UUID) (docmodel.EmbeddingRecord, error) {
	doc, err := s.repo.GetDocument(ctx, nil, documentID)
	if err != nil {
		return docmodel.EmbeddingRecord{}, err
	}
	col, err := s.repo.GetCollection(ctx, nil, docmodel.CollectionRef{ID: collectionID})
	if err != nil {
		return docmodel.EmbeddingRecord{}, err
	}
	store, err := s.stores.Get(col.VectorProvider)
	if err != nil {
		return docmodel.EmbeddingRecord{}, err
	}
	embedder, err := s.embedders.Get(col.EmbeddingProvider)
	if err != nil {
		return docmodel.EmbeddingRecord{}, err
	}

	chunks, err := s.documents.GetChunks(ctx, documentID)
	if err != nil {
		return docmodel.EmbeddingRecord{}, err
	}
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Text
	}
	vectors, err := embedder.Embed(ctx, contents, col.Model)
	if err != nil {
		return docmodel.EmbeddingRecord{}, err
	}

	if err := store.InsertEmbeddings(ctx, documentID, col.Name, contents, vectors); err != nil {
		return docmodel.EmbeddingRecord{}, err
	}

	record, err := s.repo.CreateEmbeddingRecord(ctx, nil, docmodel.EmbeddingRecord{
		DocumentID:   documentID,
		CollectionID: collectionID,
	})
	if err != nil {
		if delErr := store.DeleteEmbeddings(ctx, col.Name, documentID); delErr != nil {
			return docmodel.EmbeddingRecord{}, apperr.Wrap(apperr.Database, err, "recording embedding for document %q (compensating vector delete also failed: %v)", doc.Name, delErr)
		}
		return docmodel.EmbeddingRecord{}, err
	}
	return record, nil
}

// Search resolves a collection by ref, embeds query with the collection's
// provider/model, and returns the top-limit matching chunk contents.
func (s *VectorService) Search(ctx context.Context, ref docmodel.CollectionRef, query string, limit int) ([]string, error) {
	hasID := ref.ID != uuid.Nil
	hasNameProvider := ref.Name != "" && ref.Provider != ""
	if hasID == hasNameProvider {
		return nil, apperr.New(apperr.Validation, "search requires exactly one of {id} or {name, provider}")
	}

	col, err := s.repo.GetCollection(ctx, nil, ref)
	if err != nil {
		return nil, err
	}
	embedder, err := s.embedders.Get(col.EmbeddingProvider)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.Get(col.VectorProvider)
	if err != nil {
		return nil, err
	}

	vectors, err := embedder.Embed(ctx, []string{query}, col.Model)
	if err != nil {
		return nil, err
	}
	return store.Query(ctx, vectors[0], col.Name, limit)
}

func modelDim(embedder embed.Embedder, model string) (int, bool) {
	for _, m := range embedder.ListModels() {
		if m.Name == model {
			return m.Dim, true
		}
	}
	return 0, false
}
