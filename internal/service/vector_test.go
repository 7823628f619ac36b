package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/vectorstore"
)

func newTestVectorService(t *testing.T) (*VectorService, *fakeRepository, *fakeBlobStore, *fakeVectorStore) {
	t.Helper()
	repo := newFakeRepository()
	blobStore := newFakeBlobStore()
	embedders := embed.NewRegistry()
	embedders.Register(newFakeEmbedder("fastembed", "test-model", 4))

	stores := vectorstore.NewRegistry()
	vs := newFakeVectorStore("fake")
	stores.Register(vs)

	docs := NewDocumentService(repo, blobStore, embedders)
	return NewVectorService(repo, embedders, stores, docs), repo, blobStore, vs
}

func TestCreateCollectionInsertsRepoRowAndVectorCollection(t *testing.T) {
	svc, repo, _, vs := newTestVectorService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, CreateCollectionRequest{
		Name:              "docs",
		EmbeddingProvider: "fastembed",
		Model:             "test-model",
		VectorProvider:    "fake",
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if col.Size != 4 {
		t.Fatalf("Size = %d, want 4", col.Size)
	}
	if _, err := repo.GetCollection(ctx, nil, docmodel.CollectionRef{ID: col.ID}); err != nil {
		t.Fatalf("expected repo row, got %v", err)
	}
	if _, err := vs.GetCollection(ctx, "docs"); err != nil {
		t.Fatalf("expected vector store collection, got %v", err)
	}
}

func TestCreateCollectionRejectsInvalidName(t *testing.T) {
	svc, _, _, _ := newTestVectorService(t)
	_, err := svc.CreateCollection(context.Background(), CreateCollectionRequest{
		Name:              "has space",
		EmbeddingProvider: "fastembed",
		Model:             "test-model",
		VectorProvider:    "fake",
	})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestCreateCollectionRejectsUnknownModel(t *testing.T) {
	svc, _, _, _ := newTestVectorService(t)
	_, err := svc.CreateCollection(context.Background(), CreateCollectionRequest{
		Name:              "docs",
		EmbeddingProvider: "fastembed",
		Model:             "nonexistent",
		VectorProvider:    "fake",
	})
	if apperr.KindOf(err) != apperr.InvalidEmbeddingModel {
		t.Fatalf("expected InvalidEmbeddingModel, got %v", err)
	}
}

func TestCreateDefaultCollectionIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestVectorService(t)
	ctx := context.Background()
	req := CreateCollectionRequest{Name: "default", EmbeddingProvider: "fastembed", Model: "test-model", VectorProvider: "fake"}

	if err := svc.CreateDefaultCollection(ctx, req); err != nil {
		t.Fatalf("first CreateDefaultCollection: %v", err)
	}
	if err := svc.CreateDefaultCollection(ctx, req); err != nil {
		t.Fatalf("second CreateDefaultCollection should be idempotent, got %v", err)
	}
}

func TestEmbedRejectsDuplicateDocumentCollectionPair(t *testing.T) {
	svc, repo, blobStore, _ := newTestVectorService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, CreateCollectionRequest{
		Name: "docs", EmbeddingProvider: "fastembed", Model: "test-model", VectorProvider: "fake",
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	docID := uuid.New()
	data := []byte("some content to embed")
	path, err := blobStore.Put(ctx, docID.String()+".txt", data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := repo.CreateDocument(ctx, nil, docmodel.Document{ID: docID, Name: "doc.txt", Path: path, Ext: "txt", Hash: "h1"}); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := svc.Embed(ctx, docID, col.ID); err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	if _, err := svc.Embed(ctx, docID, col.ID); apperr.KindOf(err) != apperr.AlreadyExists {
		t.Fatalf("expected AlreadyExists on duplicate embed, got %v", err)
	}
}

func TestSearchRequiresExactlyOneRefForm(t *testing.T) {
	svc, _, _, _ := newTestVectorService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, docmodel.CollectionRef{}, "query", 5)
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected Validation for empty ref, got %v", err)
	}

	_, err = svc.Search(ctx, docmodel.CollectionRef{ID: uuid.New(), Name: "docs", Provider: "fake"}, "query", 5)
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected Validation for overspecified ref, got %v", err)
	}
}

func TestSearchEmbedsQueryAndDelegatesToVectorStore(t *testing.T) {
	svc, _, blobStore, _ := newTestVectorService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, CreateCollectionRequest{
		Name: "docs", EmbeddingProvider: "fastembed", Model: "test-model", VectorProvider: "fake",
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	docID := uuid.New()
	if _, err := blobStore.Put(ctx, docID.String()+".txt", []byte("needle in a haystack")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := svc.Search(ctx, docmodel.CollectionRef{ID: col.ID}, "needle", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestDeleteCollectionRemovesRepoRowAndVectorCollection(t *testing.T) {
	svc, repo, _, vs := newTestVectorService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, CreateCollectionRequest{
		Name: "docs", EmbeddingProvider: "fastembed", Model: "test-model", VectorProvider: "fake",
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if err := svc.DeleteCollection(ctx, col.ID); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if _, err := repo.GetCollection(ctx, nil, docmodel.CollectionRef{ID: col.ID}); apperr.KindOf(err) != apperr.DoesNotExist {
		t.Fatalf("expected repo row gone, got %v", err)
	}
	if _, err := vs.GetCollection(ctx, "docs"); apperr.KindOf(err) != apperr.DoesNotExist {
		t.Fatalf("expected vector store collection gone, got %v", err)
	}
}
