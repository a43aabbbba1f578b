package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"framesearch/config"
	"framesearch/internal/adapter/cache"
	"framesearch/internal/adapter/store"
	"framesearch/internal/domain"
	"framesearch/internal/port"
	"framesearch/internal/usecase"
)

var (
	searchQuery string
	searchTopK  int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find frames matching a free-text query",
	Long: `Embed a free-text query and return the most similar stored frames,
ranked by cosine similarity across all ingested videos.

Examples:
  framesearch search -q "red car at night"
  framesearch search -q "whiteboard diagram" --top-k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

type searchResultOutput struct {
	VideoID    string  `json:"video_id"`
	VideoTitle string  `json:"video_title"`
	FrameIndex int     `json:"frame_index"`
	Score      float64 `json:"score"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	dbPath := config.IndexDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no embedding index found. Run 'framesearch ingest' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	var searcher port.Searcher = usecase.NewSearchPipeline(st, embedder, logger)
	if cfg.Search.CacheEnabled {
		searcher = cache.NewCachedSearcher(searcher,
			cache.NewSearchCache(cfg.Search.CacheSize, cfg.Search.CacheTTL()))
	}

	topK := cfg.Search.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	results, err := searcher.Search(cmd.Context(), searchQuery, topK)
	if errors.Is(err, domain.ErrEmptyStore) {
		fmt.Println("No videos ingested yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	output := make([]searchResultOutput, 0, len(results))
	for _, r := range results {
		title := ""
		if video, err := st.GetVideo(r.VideoID); err == nil {
			title = video.Title
		}
		output = append(output, searchResultOutput{
			VideoID:    r.VideoID,
			VideoTitle: title,
			FrameIndex: r.FrameIndex,
			Score:      r.Score,
		})
	}

	if searchJSON {
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(output) == 0 {
		fmt.Println("No matching frames found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(output), searchQuery)
	for i, r := range output {
		fmt.Printf("[%d] %s (video %s) frame %d  score %.4f\n",
			i+1, r.VideoTitle, r.VideoID, r.FrameIndex, r.Score)
	}

	return nil
}
