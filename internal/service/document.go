// Package service orchestrates the core pipeline: DocumentService covers
// upload/list/get/delete and per-document parse/chunk configuration;
// VectorService covers collections, embedding, and search. Neither talks to
// net/http directly — they return apperr-typed errors for the presentation
// layer to translate.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/blob"
	"github.com/vdex/vdex/internal/chunk"
	"github.com/vdex/vdex/internal/docmodel"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/logging"
	"github.com/vdex/vdex/internal/parse"
	"github.com/vdex/vdex/internal/repository/postgres"
	"github.com/vdex/vdex/internal/vectorstore"
)

// DocumentService owns document lifecycle: upload, retrieval, parse/chunk
// preview and configuration, deletion, and store/repository reconciliation.
type DocumentService struct {
	repo     postgres.Repository
	store    blob.Store
	embedReg *embed.Registry
}

// NewDocumentService wires a DocumentService from its collaborators.
func NewDocumentService(repo postgres.Repository, store blob.Store, embedReg *embed.Registry) *DocumentService {
	return &DocumentService{repo: repo, store: store, embedReg: embedReg}
}

// Upload computes name's extension and sha256 hash, rejects a duplicate
// unless force is set, stores the bytes, and inserts the document row.
func (s *DocumentService) Upload(ctx context.Context, name string, data []byte, force bool) (docmodel.Document, error) {
	ext := extOf(name)
	if ext == "" {
		return docmodel.Document{}, apperr.New(apperr.InvalidFileName, "%q has no file extension", name)
	}
	if !docmodel.SupportedExtensions[ext] {
		return docmodel.Document{}, apperr.New(apperr.UnsupportedFileType, "no parser registered for extension %q", ext)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if existing, err := s.repo.GetDocumentByHash(ctx, nil, hash); err == nil {
		if !force {
			return docmodel.Document{}, apperr.New(apperr.AlreadyExists, "document with hash %q already exists as %q", hash, existing.Name)
		}
	} else if apperr.KindOf(err) != apperr.DoesNotExist {
		return docmodel.Document{}, err
	}

	id := uuid.New()
	storedPath, err := s.store.Put(ctx, id.String()+"."+ext, data)
	if err != nil {
		return docmodel.Document{}, err
	}

	doc, err := s.repo.CreateDocument(ctx, nil, docmodel.Document{
		ID:   id,
		Name: name,
		Path: storedPath,
		Ext:  ext,
		Hash: hash,
		Src:  "upload",
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, storedPath); delErr != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "cleaning up blob after failed document insert", "path", storedPath, "error", delErr)
		}
		return docmodel.Document{}, err
	}
	return doc, nil
}

// List returns a page of documents.
func (s *DocumentService) List(ctx context.Context, page docmodel.Page) ([]docmodel.Document, error) {
	return s.repo.ListDocuments(ctx, nil, page)
}

// Get returns one document by id.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (docmodel.Document, error) {
	return s.repo.GetDocument(ctx, nil, id)
}

// GetContent loads id's bytes and parses them with its persisted
// ParseConfig, or the inert default when none is set.
func (s *DocumentService) GetContent(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.repo.GetDocument(ctx, nil, id)
	if err != nil {
		return "", err
	}
	cfg, err := s.parseConfigFor(ctx, id)
	if err != nil {
		return "", err
	}
	return s.parseDocument(ctx, doc, cfg)
}

// GetChunks parses id's content then applies its persisted ChunkConfig, or
// DefaultSliding when none is set.
func (s *DocumentService) GetChunks(ctx context.Context, id uuid.UUID) ([]chunk.Chunk, error) {
	text, err := s.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.chunkConfigFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.chunkText(ctx, text, cfg)
}

// PreviewParse parses id's content with an ad-hoc ParseConfig without
// persisting it.
func (s *DocumentService) PreviewParse(ctx context.Context, id uuid.UUID, cfg docmodel.ParseConfig) (string, error) {
	doc, err := s.repo.GetDocument(ctx, nil, id)
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return s.parseDocument(ctx, doc, cfg)
}

// PreviewChunk parses id's persisted content then applies an ad-hoc
// ChunkConfig without persisting it.
func (s *DocumentService) PreviewChunk(ctx context.Context, id uuid.UUID, cfg docmodel.ChunkConfig) ([]chunk.Chunk, error) {
	text, err := s.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.chunkText(ctx, text, cfg)
}

// UpdateParseConfig validates and upserts id's persisted ParseConfig.
func (s *DocumentService) UpdateParseConfig(ctx context.Context, id uuid.UUID, cfg docmodel.ParseConfig) (docmodel.DocumentParseConfig, error) {
	if err := cfg.Validate(); err != nil {
		return docmodel.DocumentParseConfig{}, err
	}
	if _, err := s.repo.GetDocument(ctx, nil, id); err != nil {
		return docmodel.DocumentParseConfig{}, err
	}
	return s.repo.UpsertParseConfig(ctx, nil, docmodel.DocumentParseConfig{DocumentID: id, Config: cfg})
}

// UpdateChunkConfig validates and upserts id's persisted ChunkConfig.
func (s *DocumentService) UpdateChunkConfig(ctx context.Context, id uuid.UUID, cfg docmodel.ChunkConfig) (docmodel.DocumentChunkConfig, error) {
	if err := cfg.Validate(); err != nil {
		return docmodel.DocumentChunkConfig{}, err
	}
	if _, err := s.repo.GetDocument(ctx, nil, id); err != nil {
		return docmodel.DocumentChunkConfig{}, err
	}
	return s.repo.UpsertChunkConfig(ctx, nil, docmodel.DocumentChunkConfig{DocumentID: id, Config: cfg})
}

// Delete removes id's vectors from every collection it was embedded into,
// its embedding rows, its configs, its blob, and finally the document row
// itself, all inside one transaction. Vector-store deletes are issued
// before the commit so a committed row never implies a dangling vector.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID, vectorStores vectorStoreResolver) error {
	doc, err := s.repo.GetDocument(ctx, nil, id)
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
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logging.FromContext(ctx).ErrorContext(ctx, "rolling back document delete", "document_id", id, "error", rbErr)
			}
		}
	}()

	records, err := s.repo.ListEmbeddingRecordsByDocument(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, rec := range records {
		col, err := s.repo.GetCollection(ctx, tx, docmodel.CollectionRef{ID: rec.CollectionID})
		if err != nil {
			return err
		}
		store, err := vectorStores.Get(col.VectorProvider)
		if err != nil {
			return err
		}
		if err := store.DeleteEmbeddings(ctx, col.Name, id); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteEmbeddingRecordsForDocument(ctx, tx, id); err != nil {
		return err
	}
	// A blob that is already gone is not an error: Sync deletes exactly the
	// rows whose blob is missing.
	if err := s.store.Delete(ctx, doc.Path); err != nil && !apperr.Is(err, apperr.DoesNotExist) {
		return err
	}
	if err := s.repo.DeleteDocument(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

// Sync reconciles the document store with the repository: blob paths not
// represented by a document row are inserted as new documents; document
// rows whose blob is missing are deleted. Running Sync twice in a row with
// no intervening change to the blob store is a fixed point.
func (s *DocumentService) Sync(ctx context.Context, src string, vectorStores vectorStoreResolver) error {
	knownPaths, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	docs, err := s.repo.ListDocuments(ctx, nil, docmodel.DefaultPage(0, 0))
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(knownPaths))
	for _, p := range knownPaths {
		known[p] = true
	}

	byPath := make(map[string]docmodel.Document, len(docs))
	for _, d := range docs {
		byPath[d.Path] = d
	}

	for p := range known {
		if _, ok := byPath[p]; ok {
			continue
		}
		data, err := s.store.Get(ctx, p)
		if err != nil {
			return err
		}
		name := path.Base(p)
		ext := extOf(name)
		sum := sha256.Sum256(data)
		if _, err := s.repo.CreateDocument(ctx, nil, docmodel.Document{
			ID:   uuid.New(),
			Name: name,
			Path: p,
			Ext:  ext,
			Hash: hex.EncodeToString(sum[:]),
			Src:  src,
		}); err != nil {
			return err
		}
	}

	for _, d := range docs {
		if known[d.Path] {
			continue
		}
		if err := s.Delete(ctx, d.ID, vectorStores); err != nil {
			return err
		}
	}
	return nil
}

// vectorStoreResolver is the registry capability DocumentService needs to
// tear down vectors on delete; *vectorstore.Registry satisfies it.
type vectorStoreResolver interface {
	Get(id string) (vectorstore.VectorStore, error)
}

func (s *DocumentService) parseConfigFor(ctx context.Context, id uuid.UUID) (docmodel.ParseConfig, error) {
	cfg, err := s.repo.GetParseConfig(ctx, nil, id)
	if apperr.Is(err, apperr.DoesNotExist) {
		return docmodel.ParseConfig{}, nil
	}
	if err != nil {
		return docmodel.ParseConfig{}, err
	}
	return cfg.Config, nil
}

func (s *DocumentService) chunkConfigFor(ctx context.Context, id uuid.UUID) (docmodel.ChunkConfig, error) {
	cfg, err := s.repo.GetChunkConfig(ctx, nil, id)
	if apperr.Is(err, apperr.DoesNotExist) {
		return docmodel.DefaultSliding(), nil
	}
	if err != nil {
		return docmodel.ChunkConfig{}, err
	}
	return cfg.Config, nil
}

func (s *DocumentService) parseDocument(ctx context.Context, doc docmodel.Document, cfg docmodel.ParseConfig) (string, error) {
	data, err := s.store.Get(ctx, doc.Path)
	if err != nil {
		return "", err
	}
	parser, err := parse.New(doc.Ext)
	if err != nil {
		return "", err
	}
	return parser.Parse(data, cfg)
}

func (s *DocumentService) chunkText(ctx context.Context, text string, cfg docmodel.ChunkConfig) ([]chunk.Chunk, error) {
	var embedder chunk.ProbeEmbedder
	if cfg.Kind == docmodel.ChunkSemantic {
		provider, err := s.embedReg.Get(cfg.EmbeddingProvider)
		if err != nil {
			return nil, err
		}
		embedder = provider
	}
	chunker, err := chunk.New(cfg, embedder)
	if err != nil {
		return nil, err
	}
	return chunker.Chunk(ctx, text)
}

func extOf(name string) string {
	ext := path.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
