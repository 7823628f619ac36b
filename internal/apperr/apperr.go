// Package apperr defines the error-kind taxonomy shared by every core
// package. Core and service code returns these typed errors; only the HTTP
// presentation layer (internal/server) translates a Kind into a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for presentation-layer mapping and logging.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota
	// DoesNotExist indicates the requested entity was not found.
	DoesNotExist
	// AlreadyExists indicates a uniqueness constraint would be violated.
	AlreadyExists
	// InvalidFileName indicates an uploaded file name is empty or has no extension.
	InvalidFileName
	// UnsupportedFileType indicates the file extension has no registered parser.
	UnsupportedFileType
	// InvalidEmbeddingModel indicates a model id not offered by the resolved provider.
	InvalidEmbeddingModel
	// InvalidProvider indicates an embedding or vector-store provider id is not registered.
	InvalidProvider
	// Embedding indicates a provider-level embedding failure (upstream error, bad response shape).
	Embedding
	// ParseConfig indicates an invalid or unsatisfiable ParseConfig.
	ParseConfig
	// ParsePdf indicates a PDF decoding failure.
	ParsePdf
	// DocxRead indicates a DOCX decoding failure.
	DocxRead
	// Chunk indicates an invalid ChunkConfig or a chunking invariant violation.
	Chunk
	// Validation indicates a generic request-shape validation failure.
	Validation
	// Regex indicates an invalid filter regular expression.
	Regex
	// Database indicates a relational repository failure.
	Database
	// IO indicates a blob-store or filesystem failure.
	IO
	// Serde indicates a JSON/YAML marshaling failure.
	Serde
	// Http indicates a failed outbound HTTP call to a collaborator service.
	Http
	// Qdrant indicates a Qdrant-specific vector store failure.
	Qdrant
	// Weaviate indicates a Weaviate-specific vector store failure.
	Weaviate
	// Batch indicates the batch executor's job queue is saturated.
	Batch
)

func (k Kind) String() string {
	switch k {
	case DoesNotExist:
		return "does_not_exist"
	case AlreadyExists:
		return "already_exists"
	case InvalidFileName:
		return "invalid_file_name"
	case UnsupportedFileType:
		return "unsupported_file_type"
	case InvalidEmbeddingModel:
		return "invalid_embedding_model"
	case InvalidProvider:
		return "invalid_provider"
	case Embedding:
		return "embedding"
	case ParseConfig:
		return "parse_config"
	case ParsePdf:
		return "parse_pdf"
	case DocxRead:
		return "docx_read"
	case Chunk:
		return "chunk"
	case Validation:
		return "validation"
	case Regex:
		return "regex"
	case Database:
		return "database"
	case IO:
		return "io"
	case Serde:
		return "serde"
	case Http:
		return "http"
	case Qdrant:
		return "qdrant"
	case Weaviate:
		return "weaviate"
	case Batch:
		return "batch"
	default:
		return "unknown"
	}
}

// Error is a typed application error carrying a Kind, a message, an optional
// upstream HTTP status (for Http-kind errors whose status should pass
// through), and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	// UpstreamStatus is set only for Kind == Http, carrying the collaborator's
	// response status so the presentation layer can pass it through verbatim.
	UpstreamStatus int
	Cause          error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error with the given kind, message, and cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WrapUpstream constructs a Http-kind *Error carrying the collaborator's
// response status so the presentation layer can pass it through.
func WrapUpstream(status int, cause error, format string, args ...any) *Error {
	return &Error{Kind: Http, Message: fmt.Sprintf(format, args...), Cause: cause, UpstreamStatus: status}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unknown
}
