package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/repository/postgres"
	"github.com/vdex/vdex/internal/vectorstore"
)

// fakeTx is a no-op postgres.Tx for tests that don't exercise real rollback
// semantics; it just records whether it was committed or rolled back.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

// fakeRepository implements postgres.Repository entirely in memory.
type fakeRepository struct {
	mu sync.Mutex

	documents    map[uuid.UUID]docmodel.Document
	byHash       map[string]uuid.UUID
	parseConfigs map[uuid.UUID]docmodel.DocumentParseConfig
	chunkConfigs map[uuid.UUID]docmodel.DocumentChunkConfig
	collections  map[uuid.UUID]docmodel.Collection
	embeddings   map[uuid.UUID][]docmodel.EmbeddingRecord // keyed by document id

	beginErr error
	lastTx   *fakeTx
}

var _ postgres.Repository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		documents:    map[uuid.UUID]docmodel.Document{},
		byHash:       map[string]uuid.UUID{},
		parseConfigs: map[uuid.UUID]docmodel.DocumentParseConfig{},
		chunkConfigs: map[uuid.UUID]docmodel.DocumentChunkConfig{},
		collections:  map[uuid.UUID]docmodel.Collection{},
		embeddings:   map[uuid.UUID][]docmodel.EmbeddingRecord{},
	}
}

func (r *fakeRepository) Begin(context.Context) (postgres.Tx, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	tx := &fakeTx{}
	r.lastTx = tx
	return tx, nil
}

func (r *fakeRepository) CreateDocument(_ context.Context, _ postgres.Tx, doc docmodel.Document) (docmodel.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	for _, existing := range r.documents {
		if existing.Path == doc.Path && existing.Src == doc.Src {
			return docmodel.Document{}, apperr.New(apperr.AlreadyExists, "document with path %q already exists for src %q", doc.Path, doc.Src)
		}
	}
	r.documents[doc.ID] = doc
	r.byHash[doc.Hash] = doc.ID
	return doc, nil
}

func (r *fakeRepository) GetDocument(_ context.Context, _ postgres.Tx, id uuid.UUID) (docmodel.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return docmodel.Document{}, apperr.New(apperr.DoesNotExist, "document %s not found", id)
	}
	return doc, nil
}

func (r *fakeRepository) GetDocumentByHash(_ context.Context, _ postgres.Tx, hash string) (docmodel.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHash[hash]
	if !ok {
		return docmodel.Document{}, apperr.New(apperr.DoesNotExist, "no document with hash %q", hash)
	}
	return r.documents[id], nil
}

func (r *fakeRepository) ListDocuments(_ context.Context, _ postgres.Tx, _ docmodel.Page) ([]docmodel.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]docmodel.Document, 0, len(r.documents))
	for _, d := range r.documents {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeRepository) DeleteDocument(_ context.Context, _ postgres.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return apperr.New(apperr.DoesNotExist, "document %s not found", id)
	}
	delete(r.documents, id)
	delete(r.byHash, doc.Hash)
	return nil
}

func (r *fakeRepository) UpsertParseConfig(_ context.Context, _ postgres.Tx, cfg docmodel.DocumentParseConfig) (docmodel.DocumentParseConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	r.parseConfigs[cfg.DocumentID] = cfg
	return cfg, nil
}

func (r *fakeRepository) GetParseConfig(_ context.Context, _ postgres.Tx, documentID uuid.UUID) (docmodel.DocumentParseConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.parseConfigs[documentID]
	if !ok {
		return docmodel.DocumentParseConfig{}, apperr.New(apperr.DoesNotExist, "no parse config for document %s", documentID)
	}
	return cfg, nil
}

func (r *fakeRepository) UpsertChunkConfig(_ context.Context, _ postgres.Tx, cfg docmodel.DocumentChunkConfig) (docmodel.DocumentChunkConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	r.chunkConfigs[cfg.DocumentID] = cfg
	return cfg, nil
}

func (r *fakeRepository) GetChunkConfig(_ context.Context, _ postgres.Tx, documentID uuid.UUID) (docmodel.DocumentChunkConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.chunkConfigs[documentID]
	if !ok {
		return docmodel.DocumentChunkConfig{}, apperr.New(apperr.DoesNotExist, "no chunk config for document %s", documentID)
	}
	return cfg, nil
}

func (r *fakeRepository) CreateCollection(_ context.Context, _ postgres.Tx, c docmodel.Collection) (docmodel.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for _, existing := range r.collections {
		if existing.Name == c.Name && existing.VectorProvider == c.VectorProvider {
			return docmodel.Collection{}, apperr.New(apperr.AlreadyExists, "collection %q already exists for provider %q", c.Name, c.VectorProvider)
		}
	}
	r.collections[c.ID] = c
	return c, nil
}

func (r *fakeRepository) GetCollection(_ context.Context, _ postgres.Tx, ref docmodel.CollectionRef) (docmodel.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref.ID != uuid.Nil {
		c, ok := r.collections[ref.ID]
		if !ok {
			return docmodel.Collection{}, apperr.New(apperr.DoesNotExist, "collection %s not found", ref.ID)
		}
		return c, nil
	}
	for _, c := range r.collections {
		if c.Name == ref.Name && c.VectorProvider == ref.Provider {
			return c, nil
		}
	}
	return docmodel.Collection{}, apperr.New(apperr.DoesNotExist, "collection %q/%q not found", ref.Name, ref.Provider)
}

func (r *fakeRepository) ListCollections(context.Context, postgres.Tx) ([]docmodel.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]docmodel.Collection, 0, len(r.collections))
	for _, c := range r.collections {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeRepository) DeleteCollection(_ context.Context, _ postgres.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[id]; !ok {
		return apperr.New(apperr.DoesNotExist, "collection %s not found", id)
	}
	delete(r.collections, id)
	return nil
}

func (r *fakeRepository) CreateEmbeddingRecord(_ context.Context, _ postgres.Tx, rec docmodel.EmbeddingRecord) (docmodel.EmbeddingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for _, existing := range r.embeddings[rec.DocumentID] {
		if existing.CollectionID == rec.CollectionID {
			return docmodel.EmbeddingRecord{}, apperr.New(apperr.AlreadyExists, "embedding record already exists for document %s collection %s", rec.DocumentID, rec.CollectionID)
		}
	}
	r.embeddings[rec.DocumentID] = append(r.embeddings[rec.DocumentID], rec)
	return rec, nil
}

func (r *fakeRepository) DeleteEmbeddingRecordsForDocument(_ context.Context, _ postgres.Tx, documentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.embeddings, documentID)
	return nil
}

func (r *fakeRepository) DeleteEmbeddingRecord(_ context.Context, _ postgres.Tx, documentID, collectionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := r.embeddings[documentID]
	for i, rec := range recs {
		if rec.CollectionID == collectionID {
			r.embeddings[documentID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.DoesNotExist, "no embedding record for document %s collection %s", documentID, collectionID)
}

func (r *fakeRepository) ListEmbeddingRecordsByDocument(_ context.Context, _ postgres.Tx, documentID uuid.UUID) ([]docmodel.EmbeddingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]docmodel.EmbeddingRecord(nil), r.embeddings[documentID]...), nil
}

// fakeBlobStore implements blob.Store entirely in memory.
type fakeBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: map[string][]byte{}}
}

func (s *fakeBlobStore) ID() string { return "fake" }

func (s *fakeBlobStore) Put(_ context.Context, path string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = append([]byte(nil), data...)
	return path, nil
}

func (s *fakeBlobStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[path]
	if !ok {
		return nil, apperr.New(apperr.DoesNotExist, "no blob at %q", path)
	}
	return data, nil
}

func (s *fakeBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
	return nil
}

func (s *fakeBlobStore) Exists(_ context.Context, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[path]
	return ok
}

func (s *fakeBlobStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.data))
	for p := range s.data {
		paths = append(paths, p)
	}
	return paths, nil
}

// fakeEmbedder is a deterministic, dependency-free embed.Embedder.
type fakeEmbedder struct {
	id    string
	model string
	dim   int
}

var _ embed.Embedder = (*fakeEmbedder)(nil)

func newFakeEmbedder(id, model string, dim int) *fakeEmbedder {
	return &fakeEmbedder{id: id, model: model, dim: dim}
}

func (e *fakeEmbedder) ID() string                { return e.id }
func (e *fakeEmbedder) DefaultModel() embed.Model { return embed.Model{Name: e.model, Dim: e.dim} }
func (e *fakeEmbedder) ListModels() []embed.Model { return []embed.Model{{Name: e.model, Dim: e.dim}} }

func (e *fakeEmbedder) Embed(_ context.Context, texts []string, model string) ([][]float64, error) {
	if model != e.model {
		return nil, apperr.New(apperr.InvalidEmbeddingModel, "provider %q does not serve model %q", e.id, model)
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		vec := make([]float64, e.dim)
		vec[0] = float64(i + 1)
		out[i] = vec
	}
	return out, nil
}

// fakeVectorStore is an in-memory vectorstore.VectorStore.
type fakeVectorStore struct {
	mu          sync.Mutex
	id          string
	collections map[string]vectorstore.CollectionInfo
	points      map[string]map[uuid.UUID][]string // collection -> document -> contents
}

var _ vectorstore.VectorStore = (*fakeVectorStore)(nil)

func newFakeVectorStore(id string) *fakeVectorStore {
	return &fakeVectorStore{
		id:          id,
		collections: map[string]vectorstore.CollectionInfo{},
		points:      map[string]map[uuid.UUID][]string{},
	}
}

func (v *fakeVectorStore) ID() string { return v.id }

func (v *fakeVectorStore) ListCollections(context.Context) ([]vectorstore.CollectionInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]vectorstore.CollectionInfo, 0, len(v.collections))
	for _, c := range v.collections {
		out = append(out, c)
	}
	return out, nil
}

func (v *fakeVectorStore) CreateCollection(_ context.Context, name string, size uint64, distance string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.collections[name]; ok {
		return apperr.New(apperr.AlreadyExists, "collection %q already exists", name)
	}
	v.collections[name] = vectorstore.CollectionInfo{Name: name, Size: size, Distance: distance}
	v.points[name] = map[uuid.UUID][]string{}
	return nil
}

func (v *fakeVectorStore) GetCollection(_ context.Context, name string) (vectorstore.CollectionInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.collections[name]
	if !ok {
		return vectorstore.CollectionInfo{}, apperr.New(apperr.DoesNotExist, "collection %q not found", name)
	}
	return c, nil
}

func (v *fakeVectorStore) DeleteCollection(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.collections, name)
	delete(v.points, name)
	return nil
}

func (v *fakeVectorStore) CreateDefaultCollection(ctx context.Context, size uint64) error {
	return v.CreateCollection(ctx, "default", size, "cosine")
}

func (v *fakeVectorStore) Query(_ context.Context, _ []float64, collection string, limit int) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for _, contents := range v.points[collection] {
		out = append(out, contents...)
		if len(out) >= limit {
			return out[:limit], nil
		}
	}
	return out, nil
}

func (v *fakeVectorStore) InsertEmbeddings(_ context.Context, documentID uuid.UUID, collection string, contents []string, vectors [][]float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(contents) != len(vectors) {
		return apperr.New(apperr.Validation, "contents/vectors length mismatch")
	}
	if v.points[collection] == nil {
		v.points[collection] = map[uuid.UUID][]string{}
	}
	v.points[collection][documentID] = append(v.points[collection][documentID], contents...)
	return nil
}

func (v *fakeVectorStore) DeleteEmbeddings(_ context.Context, collection string, documentID uuid.UUID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.points[collection] != nil {
		delete(v.points[collection], documentID)
	}
	return nil
}

func (v *fakeVectorStore) CountVectors(_ context.Context, collection string, documentID uuid.UUID) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.points[collection][documentID]), nil
}
