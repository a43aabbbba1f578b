package domain

import "time"

type Video struct {
	ID         string
	Title      string
	Source     string
	Duration   float64
	FrameCount int
	CreatedAt  time.Time
}

// FrameEmbedding is one sampled frame's vector. FrameIndex is the frame's
// ordinal position in decode order; indices within a video are strictly
// increasing but not contiguous, since sampling skips frames.
type FrameEmbedding struct {
	FrameIndex int
	Vector     []float32
}

// StoredEmbedding pairs a frame embedding with the video that owns it,
// as enumerated by a full store scan.
type StoredEmbedding struct {
	VideoID   string
	Embedding FrameEmbedding
}

type SearchResult struct {
	VideoID    string  `json:"video_id"`
	FrameIndex int     `json:"frame_index"`
	Score      float64 `json:"score"`
}

// SkippedFrame records a frame that failed to embed during ingestion.
type SkippedFrame struct {
	FrameIndex int
	Reason     string
}

type IngestReport struct {
	VideoID        string
	FramesSampled  int
	FramesEmbedded int
	Skipped        []SkippedFrame
}

type Stats struct {
	TotalVideos     int
	TotalEmbeddings int
	Dimension       int
}
