package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathwise/pathwise/internal/app"
	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/rag"
)

var (
	indexCoursesDir string
	indexAll        bool
	indexMigrate    bool
)

var indexCmd = &cobra.Command{
	Use:   "index [courseID]",
	Short: "Index course content into the vector store",
	Long: `Index chunks course descriptions, module descriptions and lesson bodies,
embeds each chunk and upserts it into the vector store.

Pass a course ID to index one course, or --all to reindex every course in the
course directory sequentially.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd.Context(), args)
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexCoursesDir, "courses", "courses", "directory of course JSON files")
	indexCmd.Flags().BoolVar(&indexAll, "all", false, "reindex every course")
	indexCmd.Flags().BoolVar(&indexMigrate, "migrate", false, "apply pending schema migrations first")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(ctx context.Context, args []string) error {
	if !indexAll && len(args) == 0 {
		return errors.New("pass a course ID or --all")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{})

	source, err := rag.NewFileSource(indexCoursesDir)
	if err != nil {
		return fmt.Errorf("opening course source: %w", err)
	}

	a, err := app.Setup(ctx, cfg, logger, app.Options{
		CourseSource: source,
		Migrate:      indexMigrate,
	})
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if indexAll {
		results, err := a.Indexer.ReindexAll(ctx)
		if err != nil {
			return fmt.Errorf("reindexing: %w", err)
		}
		for courseID, count := range results {
			fmt.Printf("%s: %d chunks\n", courseID, count)
		}
		return nil
	}

	count, err := a.Indexer.IndexCourse(ctx, args[0])
	if err != nil {
		return fmt.Errorf("indexing course %s: %w", args[0], err)
	}
	fmt.Printf("%s: %d chunks\n", args[0], count)
	return nil
}
