// Command dbinspect prints catalog totals and orphaned videos, optionally
// removing the orphans.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/store/sqlite"
)

func main() {
	clean := flag.Bool("clean", false, "Delete orphaned videos after listing them")
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(os.ExpandEnv("$HOME"), "VidShelf", "vidshelf.db")
	}
	if flag.NArg() > 0 {
		dbPath = flag.Arg(0)
	}

	st, err := sqlite.Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Println(dbPath)
	fmt.Println()

	corrected, err := st.LibraryStats(ctx, true)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	raw, err := st.LibraryStats(ctx, false)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	fmt.Println("=== Totals ===")
	printStats("Library", corrected)
	printStats("All rows", raw)
	fmt.Println()

	folders, err := st.ListFolders(ctx)
	if err != nil {
		log.Fatalf("Failed to list folders: %v", err)
	}
	fmt.Printf("=== Folders (%d) ===\n", len(folders))
	for _, f := range folders {
		fmt.Printf("  [%d] %s\n", f.ID, f.Path)
	}
	fmt.Println()

	orphans, err := st.ListOrphanedVideos(ctx)
	if err != nil {
		log.Fatalf("Failed to list orphans: %v", err)
	}
	fmt.Printf("=== Orphaned Videos (%d) ===\n", len(orphans))
	for _, v := range orphans {
		fmt.Printf("  [%d] %s\n", v.ID, v.FilePath)
	}

	if *clean && len(orphans) > 0 {
		n, err := st.DeleteOrphanedVideos(ctx)
		if err != nil {
			log.Fatalf("Failed to delete orphans: %v", err)
		}
		fmt.Printf("\nDeleted %d orphaned videos\n", n)
	}
}

func printStats(label string, s *domain.LibraryStats) {
	fmt.Printf("  %-9s videos=%d watched=%d tags=%d folders=%d duration=%ds\n",
		label+":", s.TotalVideos, s.WatchedVideos, s.TotalTags, s.TotalFolders, s.TotalDuration)
}
