package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"framesearch/config"
	"framesearch/internal/adapter/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what is stored in the embedding index",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	dbPath := config.IndexDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No embedding index found.")
		return nil
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Videos:     %d\n", stats.TotalVideos)
	fmt.Printf("Embeddings: %d\n", stats.TotalEmbeddings)
	if stats.Dimension > 0 {
		fmt.Printf("Dimension:  %d\n", stats.Dimension)
	}

	videos, err := st.ListVideos()
	if err != nil {
		return err
	}
	if len(videos) > 0 {
		fmt.Println()
		for _, v := range videos {
			fmt.Printf("  %s  %q  %d frames", v.ID, v.Title, v.FrameCount)
			if v.Duration > 0 {
				fmt.Printf("  %.1fs", v.Duration)
			}
			fmt.Println()
		}
	}

	return nil
}
