package domain

import "errors"

// Sentinel errors for the failure modes callers are expected to branch on.
// They are wrapped with fmt.Errorf("...: %w", ...) and matched with errors.Is.
var (
	// ErrInvalidConfiguration marks caller misuse (bad sampling interval,
	// non-positive k). Rejected before any work starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnreadableVideo means the decoder could not open or parse the
	// source. Fatal to ingestion; nothing is written.
	ErrUnreadableVideo = errors.New("unreadable video")

	// ErrDimensionMismatch means a vector's length disagrees with the
	// store's fixed dimensionality. Always fatal; never partially applied.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyQuery is returned for empty or whitespace-only query text,
	// before the embedder is invoked.
	ErrEmptyQuery = errors.New("empty query")

	// ErrEmbeddingFailed wraps a query-side embedder failure.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmptyStore means no embeddings exist yet. Distinct from a search
	// that matched nothing: callers check it to tell "no data" from "no match".
	ErrEmptyStore = errors.New("embedding store is empty")
)
