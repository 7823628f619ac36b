package vectorstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/vdex/vdex/internal/apperr"
)

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// DefaultCollection is the well-known name created by
	// CreateDefaultCollection.
	DefaultCollection string
}

// Qdrant implements VectorStore backed by a Qdrant instance.
type Qdrant struct {
	client *qdrant.Client
	cfg    QdrantConfig
}

// NewQdrant dials a Qdrant instance and returns a ready-to-use VectorStore.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Qdrant, err, "creating client")
	}
	return &Qdrant{client: client, cfg: cfg}, nil
}

// ID implements VectorStore.
func (q *Qdrant) ID() string { return "qdrant" }

func distanceFromString(d string) qdrant.Distance {
	switch d {
	case "euclidean":
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

func distanceToString(d qdrant.Distance) string {
	if d == qdrant.Distance_Euclid {
		return "euclidean"
	}
	return "cosine"
}

// ListCollections implements VectorStore.
func (q *Qdrant) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	names, err := q.client.ListCollections(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Qdrant, err, "listing collections")
	}
	out := make([]CollectionInfo, 0, len(names))
	for _, name := range names {
		info, err := q.GetCollection(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// CreateCollection implements VectorStore.
func (q *Qdrant) CreateCollection(ctx context.Context, name string, size uint64, distance string) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return apperr.Wrap(apperr.Qdrant, err, "checking collection %q", name)
	}
	if exists {
		return apperr.New(apperr.AlreadyExists, "collection %q already exists", name)
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: distanceFromString(distance),
		}),
	})
	if err != nil {
		return apperr.Wrap(apperr.Qdrant, err, "creating collection %q", name)
	}
	return nil
}

// GetCollection implements VectorStore.
func (q *Qdrant) GetCollection(ctx context.Context, name string) (CollectionInfo, error) {
	info, err := q.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return CollectionInfo{}, apperr.New(apperr.DoesNotExist, "collection %q: %v", name, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	return CollectionInfo{
		Name:     name,
		Size:     params.GetSize(),
		Distance: distanceToString(params.GetDistance()),
	}, nil
}

// DeleteCollection implements VectorStore.
func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	if err := q.client.DeleteCollection(ctx, name); err != nil {
		return apperr.Wrap(apperr.Qdrant, err, "deleting collection %q", name)
	}
	return nil
}

// CreateDefaultCollection implements VectorStore.
func (q *Qdrant) CreateDefaultCollection(ctx context.Context, size uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.DefaultCollection)
	if err != nil {
		return apperr.Wrap(apperr.Qdrant, err, "checking default collection")
	}
	if exists {
		return nil
	}
	return q.CreateCollection(ctx, q.cfg.DefaultCollection, size, "cosine")
}

// Query implements VectorStore.
func (q *Qdrant) Query(ctx context.Context, vector []float64, collection string, limit int) ([]string, error) {
	v32 := make([]float32, len(vector))
	for i, f := range vector {
		v32[i] = float32(f)
	}
	l := uint64(limit)
	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(v32...),
		Limit:          &l,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Qdrant, err, "querying collection %q", collection)
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		if p := r.Payload; p != nil {
			if v, ok := p["content"]; ok {
				out = append(out, v.GetStringValue())
			}
		}
	}
	return out, nil
}

// InsertEmbeddings implements VectorStore.
func (q *Qdrant) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collection string, contents []string, vectors [][]float64) error {
	if len(contents) != len(vectors) {
		return apperr.New(apperr.Validation, "contents length %d != vectors length %d", len(contents), len(vectors))
	}
	points := make([]*qdrant.PointStruct, 0, len(contents))
	for i, content := range contents {
		v32 := make([]float32, len(vectors[i]))
		for j, f := range vectors[i] {
			v32[j] = float32(f)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.New().String()),
			Vectors: qdrant.NewVectors(v32...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"document_id": documentID.String(),
				"content":     content,
			}),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return apperr.Wrap(apperr.Qdrant, err, "inserting embeddings into %q", collection)
	}
	return nil
}

func documentFilter(documentID uuid.UUID) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("document_id", documentID.String()),
		},
	}
}

// DeleteEmbeddings implements VectorStore.
func (q *Qdrant) DeleteEmbeddings(ctx context.Context, collection string, documentID uuid.UUID) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
	})
	if err != nil {
		return apperr.Wrap(apperr.Qdrant, err, "deleting embeddings for document %s", documentID)
	}
	return nil
}

// CountVectors implements VectorStore.
func (q *Qdrant) CountVectors(ctx context.Context, collection string, documentID uuid.UUID) (int, error) {
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         documentFilter(documentID),
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.Qdrant, err, "counting vectors for document %s", documentID)
	}
	return int(count), nil
}
