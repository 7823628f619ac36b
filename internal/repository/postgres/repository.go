package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// Repository is the relational metadata store: documents, their parse/chunk
// configs, collections, and embedding records. Every method accepts an
// optional Tx so callers can compose relational writes with remote vector
// store calls inside one transaction.
type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	CreateDocument(ctx context.Context, tx Tx, doc docmodel.Document) (docmodel.Document, error)
	GetDocument(ctx context.Context, tx Tx, id uuid.UUID) (docmodel.Document, error)
	GetDocumentByHash(ctx context.Context, tx Tx, hash string) (docmodel.Document, error)
	ListDocuments(ctx context.Context, tx Tx, page docmodel.Page) ([]docmodel.Document, error)
	DeleteDocument(ctx context.Context, tx Tx, id uuid.UUID) error

	UpsertParseConfig(ctx context.Context, tx Tx, cfg docmodel.DocumentParseConfig) (docmodel.DocumentParseConfig, error)
	GetParseConfig(ctx context.Context, tx Tx, documentID uuid.UUID) (docmodel.DocumentParseConfig, error)

	UpsertChunkConfig(ctx context.Context, tx Tx, cfg docmodel.DocumentChunkConfig) (docmodel.DocumentChunkConfig, error)
	GetChunkConfig(ctx context.Context, tx Tx, documentID uuid.UUID) (docmodel.DocumentChunkConfig, error)

	CreateCollection(ctx context.Context, tx Tx, c docmodel.Collection) (docmodel.Collection, error)
	GetCollection(ctx context.Context, tx Tx, ref docmodel.CollectionRef) (docmodel.Collection, error)
	ListCollections(ctx context.Context, tx Tx) ([]docmodel.Collection, error)
	DeleteCollection(ctx context.Context, tx Tx, id uuid.UUID) error

	CreateEmbeddingRecord(ctx context.Context, tx Tx, r docmodel.EmbeddingRecord) (docmodel.EmbeddingRecord, error)
	DeleteEmbeddingRecordsForDocument(ctx context.Context, tx Tx, documentID uuid.UUID) error
	DeleteEmbeddingRecord(ctx context.Context, tx Tx, documentID, collectionID uuid.UUID) error
	ListEmbeddingRecordsByDocument(ctx context.Context, tx Tx, documentID uuid.UUID) ([]docmodel.EmbeddingRecord, error)
}

// Postgres implements Repository on top of a pgxpool.Pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New wraps pool as a Repository.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Begin implements Repository.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	return Begin(ctx, p.pool)
}

func (p *Postgres) q(tx Tx) querier { return resolve(p.pool, tx) }

// CreateDocument implements Repository.
func (p *Postgres) CreateDocument(ctx context.Context, tx Tx, doc docmodel.Document) (docmodel.Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	_, err := p.q(tx).Exec(ctx, `
		INSERT INTO documents (id, name, path, ext, hash, src, labels, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.Name, doc.Path, doc.Ext, doc.Hash, doc.Src, doc.Labels, tagsToJSON(doc.Tags), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return docmodel.Document{}, classifyError(err, "creating document")
	}
	return doc, nil
}

// GetDocument implements Repository.
func (p *Postgres) GetDocument(ctx context.Context, tx Tx, id uuid.UUID) (docmodel.Document, error) {
	row := p.q(tx).QueryRow(ctx, `
		SELECT id, name, path, ext, hash, src, labels, tags, created_at, updated_at
		FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

// GetDocumentByHash implements Repository.
func (p *Postgres) GetDocumentByHash(ctx context.Context, tx Tx, hash string) (docmodel.Document, error) {
	row := p.q(tx).QueryRow(ctx, `
		SELECT id, name, path, ext, hash, src, labels, tags, created_at, updated_at
		FROM documents WHERE hash = $1`, hash)
	return scanDocument(row)
}

// ListDocuments implements Repository.
func (p *Postgres) ListDocuments(ctx context.Context, tx Tx, page docmodel.Page) ([]docmodel.Document, error) {
	rows, err := p.q(tx).Query(ctx, `
		SELECT id, name, path, ext, hash, src, labels, tags, created_at, updated_at
		FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, classifyError(err, "listing documents")
	}
	defer rows.Close()

	var docs []docmodel.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument implements Repository.
func (p *Postgres) DeleteDocument(ctx context.Context, tx Tx, id uuid.UUID) error {
	_, err := p.q(tx).Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "deleting document")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row pgx.Row) (docmodel.Document, error) {
	return scanDocumentRow(row)
}

func scanDocumentRow(row rowScanner) (docmodel.Document, error) {
	var doc docmodel.Document
	var tagsJSON []byte
	err := row.Scan(&doc.ID, &doc.Name, &doc.Path, &doc.Ext, &doc.Hash, &doc.Src, &doc.Labels, &tagsJSON, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return docmodel.Document{}, classifyError(err, "document")
	}
	doc.Tags = tagsFromJSON(tagsJSON)
	return doc, nil
}

func tagsToJSON(tags map[string]string) []byte {
	if tags == nil {
		tags = map[string]string{}
	}
	data, _ := json.Marshal(tags)
	return data
}

func tagsFromJSON(data []byte) map[string]string {
	tags := map[string]string{}
	if len(data) == 0 {
		return tags
	}
	_ = json.Unmarshal(data, &tags)
	return tags
}

// parseConfigJSON is the JSON wire shape for docmodel.ParseConfig.
type parseConfigJSON struct {
	Start   uint32   `json:"start"`
	End     uint32   `json:"end"`
	Range   bool     `json:"range"`
	Filters []string `json:"filters"`
}

func encodeParseConfig(c docmodel.ParseConfig) []byte {
	data, _ := json.Marshal(parseConfigJSON{Start: c.Start, End: c.End, Range: c.Range, Filters: c.Filters})
	return data
}

func decodeParseConfig(data []byte) (docmodel.ParseConfig, error) {
	var j parseConfigJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return docmodel.ParseConfig{}, apperr.Wrap(apperr.Serde, err, "decoding parse config")
	}
	return docmodel.ParseConfig{Start: j.Start, End: j.End, Range: j.Range, Filters: j.Filters}, nil
}

// chunkConfigJSON is the JSON wire shape for docmodel.ChunkConfig, carrying
// every kind's fields; only the ones relevant to Kind are populated.
type chunkConfigJSON struct {
	Kind              string   `json:"kind"`
	Size              int      `json:"size,omitempty"`
	Overlap           int      `json:"overlap,omitempty"`
	SkipForward       []string `json:"skip_forward,omitempty"`
	SkipBack          []string `json:"skip_back,omitempty"`
	Delimiter         string   `json:"delimiter,omitempty"`
	Threshold         float64  `json:"threshold,omitempty"`
	DistanceFn        string   `json:"distance_fn,omitempty"`
	EmbeddingProvider string   `json:"embedding_provider,omitempty"`
	EmbeddingModel    string   `json:"embedding_model,omitempty"`
}

func encodeChunkConfig(c docmodel.ChunkConfig) []byte {
	j := chunkConfigJSON{
		Kind:              c.Kind.String(),
		Size:              c.Size,
		Overlap:           c.Overlap,
		SkipForward:       c.SkipForward,
		SkipBack:          c.SkipBack,
		Threshold:         c.Threshold,
		DistanceFn:        c.DistanceFn,
		EmbeddingProvider: c.EmbeddingProvider,
		EmbeddingModel:    c.EmbeddingModel,
	}
	if c.Delimiter != 0 {
		j.Delimiter = string(c.Delimiter)
	}
	data, _ := json.Marshal(j)
	return data
}

func decodeChunkConfig(data []byte) (docmodel.ChunkConfig, error) {
	var j chunkConfigJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return docmodel.ChunkConfig{}, apperr.Wrap(apperr.Serde, err, "decoding chunk config")
	}
	cfg := docmodel.ChunkConfig{
		Size:              j.Size,
		Overlap:           j.Overlap,
		SkipForward:       j.SkipForward,
		SkipBack:          j.SkipBack,
		Threshold:         j.Threshold,
		DistanceFn:        j.DistanceFn,
		EmbeddingProvider: j.EmbeddingProvider,
		EmbeddingModel:    j.EmbeddingModel,
	}
	if len(j.Delimiter) > 0 {
		cfg.Delimiter = []rune(j.Delimiter)[0]
	}
	switch j.Kind {
	case "sliding":
		cfg.Kind = docmodel.ChunkSliding
	case "snapping":
		cfg.Kind = docmodel.ChunkSnapping
	case "semantic":
		cfg.Kind = docmodel.ChunkSemantic
	default:
		return docmodel.ChunkConfig{}, apperr.New(apperr.Serde, "unknown persisted chunk kind %q", j.Kind)
	}
	return cfg, nil
}

// UpsertParseConfig implements Repository.
func (p *Postgres) UpsertParseConfig(ctx context.Context, tx Tx, cfg docmodel.DocumentParseConfig) (docmodel.DocumentParseConfig, error) {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	_, err := p.q(tx).Exec(ctx, `
		INSERT INTO parse_configs (id, document_id, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id) DO UPDATE
		SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`,
		cfg.ID, cfg.DocumentID, encodeParseConfig(cfg.Config), cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return docmodel.DocumentParseConfig{}, classifyError(err, "upserting parse config")
	}
	return cfg, nil
}

// GetParseConfig implements Repository.
func (p *Postgres) GetParseConfig(ctx context.Context, tx Tx, documentID uuid.UUID) (docmodel.DocumentParseConfig, error) {
	var out docmodel.DocumentParseConfig
	var raw []byte
	err := p.q(tx).QueryRow(ctx, `
		SELECT id, document_id, config, created_at, updated_at
		FROM parse_configs WHERE document_id = $1`, documentID).
		Scan(&out.ID, &out.DocumentID, &raw, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return docmodel.DocumentParseConfig{}, classifyError(err, "parse config")
	}
	out.Config, err = decodeParseConfig(raw)
	return out, err
}

// UpsertChunkConfig implements Repository.
func (p *Postgres) UpsertChunkConfig(ctx context.Context, tx Tx, cfg docmodel.DocumentChunkConfig) (docmodel.DocumentChunkConfig, error) {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	_, err := p.q(tx).Exec(ctx, `
		INSERT INTO chunk_configs (id, document_id, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id) DO UPDATE
		SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`,
		cfg.ID, cfg.DocumentID, encodeChunkConfig(cfg.Config), cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return docmodel.DocumentChunkConfig{}, classifyError(err, "upserting chunk config")
	}
	return cfg, nil
}

// GetChunkConfig implements Repository.
func (p *Postgres) GetChunkConfig(ctx context.Context, tx Tx, documentID uuid.UUID) (docmodel.DocumentChunkConfig, error) {
	var out docmodel.DocumentChunkConfig
	var raw []byte
	err := p.q(tx).QueryRow(ctx, `
		SELECT id, document_id, config, created_at, updated_at
		FROM chunk_configs WHERE document_id = $1`, documentID).
		Scan(&out.ID, &out.DocumentID, &raw, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return docmodel.DocumentChunkConfig{}, classifyError(err, "chunk config")
	}
	out.Config, err = decodeChunkConfig(raw)
	return out, err
}

// CreateCollection implements Repository.
func (p *Postgres) CreateCollection(ctx context.Context, tx Tx, c docmodel.Collection) (docmodel.Collection, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := p.q(tx).Exec(ctx, `
		INSERT INTO collections (id, name, model, embedding_provider, vector_provider, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Model, c.EmbeddingProvider, c.VectorProvider, c.Size, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return docmodel.Collection{}, classifyError(err, "creating collection")
	}
	return c, nil
}

// GetCollection implements Repository.
func (p *Postgres) GetCollection(ctx context.Context, tx Tx, ref docmodel.CollectionRef) (docmodel.Collection, error) {
	var row pgx.Row
	if ref.ID != uuid.Nil {
		row = p.q(tx).QueryRow(ctx, `
			SELECT id, name, model, embedding_provider, vector_provider, size, created_at, updated_at
			FROM collections WHERE id = $1`, ref.ID)
	} else {
		row = p.q(tx).QueryRow(ctx, `
			SELECT id, name, model, embedding_provider, vector_provider, size, created_at, updated_at
			FROM collections WHERE name = $1 AND vector_provider = $2`, ref.Name, ref.Provider)
	}
	var c docmodel.Collection
	err := row.Scan(&c.ID, &c.Name, &c.Model, &c.EmbeddingProvider, &c.VectorProvider, &c.Size, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return docmodel.Collection{}, classifyError(err, "collection")
	}
	return c, nil
}

// ListCollections implements Repository.
func (p *Postgres) ListCollections(ctx context.Context, tx Tx) ([]docmodel.Collection, error) {
	rows, err := p.q(tx).Query(ctx, `
		SELECT id, name, model, embedding_provider, vector_provider, size, created_at, updated_at
		FROM collections ORDER BY created_at`)
	if err != nil {
		return nil, classifyError(err, "listing collections")
	}
	defer rows.Close()

	var out []docmodel.Collection
	for rows.Next() {
		var c docmodel.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Model, &c.EmbeddingProvider, &c.VectorProvider, &c.Size, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, classifyError(err, "collection row")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCollection implements Repository.
func (p *Postgres) DeleteCollection(ctx context.Context, tx Tx, id uuid.UUID) error {
	_, err := p.q(tx).Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "deleting collection")
	}
	return nil
}

// CreateEmbeddingRecord implements Repository.
func (p *Postgres) CreateEmbeddingRecord(ctx context.Context, tx Tx, r docmodel.EmbeddingRecord) (docmodel.EmbeddingRecord, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := p.q(tx).Exec(ctx, `
		INSERT INTO embeddings (id, document_id, collection_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		r.ID, r.DocumentID, r.CollectionID, r.CreatedAt)
	if err != nil {
		return docmodel.EmbeddingRecord{}, classifyError(err, "creating embedding record")
	}
	return r, nil
}

// DeleteEmbeddingRecordsForDocument implements Repository.
func (p *Postgres) DeleteEmbeddingRecordsForDocument(ctx context.Context, tx Tx, documentID uuid.UUID) error {
	_, err := p.q(tx).Exec(ctx, `DELETE FROM embeddings WHERE document_id = $1`, documentID)
	if err != nil {
		return classifyError(err, "deleting embedding records for document")
	}
	return nil
}

// DeleteEmbeddingRecord implements Repository.
func (p *Postgres) DeleteEmbeddingRecord(ctx context.Context, tx Tx, documentID, collectionID uuid.UUID) error {
	_, err := p.q(tx).Exec(ctx, `DELETE FROM embeddings WHERE document_id = $1 AND collection_id = $2`, documentID, collectionID)
	if err != nil {
		return classifyError(err, "deleting embedding record")
	}
	return nil
}

// ListEmbeddingRecordsByDocument implements Repository.
func (p *Postgres) ListEmbeddingRecordsByDocument(ctx context.Context, tx Tx, documentID uuid.UUID) ([]docmodel.EmbeddingRecord, error) {
	rows, err := p.q(tx).Query(ctx, `
		SELECT id, document_id, collection_id, created_at FROM embeddings WHERE document_id = $1`, documentID)
	if err != nil {
		return nil, classifyError(err, "listing embedding records")
	}
	defer rows.Close()

	var out []docmodel.EmbeddingRecord
	for rows.Next() {
		var r docmodel.EmbeddingRecord
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.CollectionID, &r.CreatedAt); err != nil {
			return nil, classifyError(err, "embedding record row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
