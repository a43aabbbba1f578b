package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"framesearch/internal/adapter/cache"
	"framesearch/internal/adapter/sampler"
	"framesearch/internal/domain"
	"framesearch/internal/port"
)

// IngestPipeline samples a decoded frame stream, embeds each sampled
// frame, and commits the result as one atomic store write. Nothing is
// durable for a video until Ingest returns successfully; an aborted or
// cancelled ingestion leaves the store exactly as it was.
type IngestPipeline struct {
	store    port.EmbeddingStore
	embedder port.Embedder
	sampler  *sampler.Sampler
	cache    *cache.SearchCache
	onFrame  func(frameIndex int)
	logger   *slog.Logger
}

type IngestRequest struct {
	VideoID  string // generated when empty
	Title    string
	Source   string
	Duration float64
}

func NewIngestPipeline(store port.EmbeddingStore, embedder port.Embedder, interval int, logger *slog.Logger) (*IngestPipeline, error) {
	s, err := sampler.New(interval)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestPipeline{
		store:    store,
		embedder: embedder,
		sampler:  s,
		logger:   logger,
	}, nil
}

// WithCache registers a search cache to invalidate once ingestion commits.
func (p *IngestPipeline) WithCache(c *cache.SearchCache) *IngestPipeline {
	p.cache = c
	return p
}

// WithProgress registers a callback invoked after each embedded frame.
func (p *IngestPipeline) WithProgress(fn func(frameIndex int)) *IngestPipeline {
	p.onFrame = fn
	return p
}

func (p *IngestPipeline) Ingest(ctx context.Context, req IngestRequest, stream port.FrameStream) (*domain.IngestReport, error) {
	videoID := req.VideoID
	if videoID == "" {
		videoID = uuid.NewString()
	}

	wantDim := 0
	if d, err := p.store.Dimensionality(); err == nil {
		wantDim = d
	} else if !errors.Is(err, domain.ErrEmptyStore) {
		return nil, err
	}

	report := &domain.IngestReport{VideoID: videoID}
	var embeddings []domain.FrameEmbedding

	err := p.sampler.Each(ctx, stream, func(frameIndex int, frame []byte) error {
		report.FramesSampled++

		vec, err := p.embedder.EmbedImage(ctx, frame)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// A single bad frame is not fatal: skip it, keep the rest.
			p.logger.Warn("frame embedding failed, skipping",
				"video", videoID, "frame", frameIndex, "error", err)
			report.Skipped = append(report.Skipped, domain.SkippedFrame{
				FrameIndex: frameIndex,
				Reason:     err.Error(),
			})
			return nil
		}

		// A wrong-length vector means the embedding producer is
		// misconfigured, not that one frame is bad. Abort everything.
		if wantDim == 0 {
			wantDim = len(vec)
		} else if len(vec) != wantDim {
			return fmt.Errorf("%w: embedder produced %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, len(vec), wantDim)
		}

		embeddings = append(embeddings, domain.FrameEmbedding{
			FrameIndex: frameIndex,
			Vector:     vec,
		})
		report.FramesEmbedded++
		if p.onFrame != nil {
			p.onFrame(frameIndex)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	video := domain.Video{
		ID:       videoID,
		Title:    req.Title,
		Source:   req.Source,
		Duration: req.Duration,
	}
	if err := p.store.Put(video, embeddings); err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Invalidate()
	}

	p.logger.Info("video ingested",
		"video", videoID,
		"sampled", report.FramesSampled,
		"embedded", report.FramesEmbedded,
		"skipped", len(report.Skipped),
	)
	return report, nil
}
