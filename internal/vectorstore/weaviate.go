package vectorstore

import (
	"context"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/vdex/vdex/internal/apperr"
)

// WeaviateConfig holds connection parameters for a Weaviate instance.
type WeaviateConfig struct {
	Host   string
	Scheme string
	APIKey string

	// DefaultCollection is the well-known class name created by
	// CreateDefaultCollection.
	DefaultCollection string
}

// Weaviate implements VectorStore backed by a Weaviate instance. Collections
// map to Weaviate classes; document tagging uses a "documentId" property
// rather than Qdrant's payload filter since Weaviate classes are schema'd.
type Weaviate struct {
	client *weaviate.Client
	cfg    WeaviateConfig
}

// NewWeaviate dials a Weaviate instance and returns a ready-to-use
// VectorStore.
func NewWeaviate(cfg WeaviateConfig) (*Weaviate, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	wcfg := weaviate.Config{Host: cfg.Host, Scheme: cfg.Scheme}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.Weaviate, err, "creating client")
	}
	return &Weaviate{client: client, cfg: cfg}, nil
}

// ID implements VectorStore.
func (w *Weaviate) ID() string { return "weaviate" }

var embeddingClassProps = []*models.Property{
	{Name: "documentId", DataType: []string{"text"}},
	{Name: "content", DataType: []string{"text"}},
}

// ListCollections implements VectorStore.
func (w *Weaviate) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	schema, err := w.client.Schema().Getter().Do(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Weaviate, err, "fetching schema")
	}
	out := make([]CollectionInfo, 0, len(schema.Classes))
	for _, c := range schema.Classes {
		out = append(out, CollectionInfo{Name: c.Class, Distance: "cosine"})
	}
	return out, nil
}

// CreateCollection implements VectorStore.
func (w *Weaviate) CreateCollection(ctx context.Context, name string, size uint64, distance string) error {
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Weaviate, err, "checking class %q", name)
	}
	if exists {
		return apperr.New(apperr.AlreadyExists, "collection %q already exists", name)
	}
	class := &models.Class{
		Class:      name,
		Vectorizer: "none",
		Properties: embeddingClassProps,
		VectorIndexConfig: map[string]interface{}{
			"distance": distance,
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return apperr.Wrap(apperr.Weaviate, err, "creating class %q", name)
	}
	return nil
}

// GetCollection implements VectorStore.
func (w *Weaviate) GetCollection(ctx context.Context, name string) (CollectionInfo, error) {
	class, err := w.client.Schema().ClassGetter().WithClassName(name).Do(ctx)
	if err != nil {
		return CollectionInfo{}, apperr.New(apperr.DoesNotExist, "collection %q: %v", name, err)
	}
	return CollectionInfo{Name: class.Class, Distance: "cosine"}, nil
}

// DeleteCollection implements VectorStore.
func (w *Weaviate) DeleteCollection(ctx context.Context, name string) error {
	if err := w.client.Schema().ClassDeleter().WithClassName(name).Do(ctx); err != nil {
		return apperr.Wrap(apperr.Weaviate, err, "deleting class %q", name)
	}
	return nil
}

// CreateDefaultCollection implements VectorStore.
func (w *Weaviate) CreateDefaultCollection(ctx context.Context, size uint64) error {
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(w.cfg.DefaultCollection).Do(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Weaviate, err, "checking default class")
	}
	if exists {
		return nil
	}
	return w.CreateCollection(ctx, w.cfg.DefaultCollection, size, "cosine")
}

// Query implements VectorStore.
func (w *Weaviate) Query(ctx context.Context, vector []float64, collection string, limit int) ([]string, error) {
	v32 := make([]float32, len(vector))
	for i, f := range vector {
		v32[i] = float32(f)
	}
	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(v32)

	result, err := w.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(graphql.Field{Name: "content"}).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Weaviate, err, "querying collection %q", collection)
	}
	return extractContents(result, collection), nil
}

// extractContents pulls the "content" property out of a Get query's nested
// GraphQL response shape.
func extractContents(result *models.GraphQLResponse, collection string) []string {
	var out []string
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return out
	}
	items, ok := get[collection].([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if content, ok := obj["content"].(string); ok {
			out = append(out, content)
		}
	}
	return out
}

// InsertEmbeddings implements VectorStore.
func (w *Weaviate) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collection string, contents []string, vectors [][]float64) error {
	if len(contents) != len(vectors) {
		return apperr.New(apperr.Validation, "contents length %d != vectors length %d", len(contents), len(vectors))
	}
	objs := make([]*models.Object, 0, len(contents))
	for i, content := range contents {
		v32 := make([]float32, len(vectors[i]))
		for j, f := range vectors[i] {
			v32[j] = float32(f)
		}
		objs = append(objs, &models.Object{
			Class:  collection,
			ID:     strfmt.UUID(uuid.New().String()),
			Vector: v32,
			Properties: map[string]interface{}{
				"documentId": documentID.String(),
				"content":    content,
			},
		})
	}
	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Weaviate, err, "inserting embeddings into %q", collection)
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return apperr.New(apperr.Weaviate, "batch insert error: %s", r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func documentWhere(documentID uuid.UUID) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueText(documentID.String())
}

// DeleteEmbeddings implements VectorStore.
func (w *Weaviate) DeleteEmbeddings(ctx context.Context, collection string, documentID uuid.UUID) error {
	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(collection).
		WithWhere(documentWhere(documentID)).
		Do(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Weaviate, err, "deleting embeddings for document %s", documentID)
	}
	return nil
}

// CountVectors implements VectorStore.
func (w *Weaviate) CountVectors(ctx context.Context, collection string, documentID uuid.UUID) (int, error) {
	result, err := w.client.GraphQL().Aggregate().
		WithClassName(collection).
		WithWhere(documentWhere(documentID)).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.Weaviate, err, "counting vectors for document %s", documentID)
	}
	return aggregateCount(result, collection), nil
}

func aggregateCount(result *models.GraphQLResponse, collection string) int {
	agg, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	items, ok := agg[collection].([]interface{})
	if !ok || len(items) == 0 {
		return 0
	}
	obj, ok := items[0].(map[string]interface{})
	if !ok {
		return 0
	}
	meta, ok := obj["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0
	}
	return int(count)
}
