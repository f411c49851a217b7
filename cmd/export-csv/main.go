// Exports the library catalog to CSV for backup or inspection.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bookhub/internal/catalog"
	"bookhub/internal/store"
	"bookhub/pkg/database"
)

func main() {
	out := flag.String("out", "data/catalog.csv", "output CSV path")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportCatalog(ctx, store.NewRepo(db), *out); err != nil {
		log.Fatalf("export catalog failed: %v", err)
	}
	log.Printf("exported catalog to %s", *out)
}

func exportCatalog(ctx context.Context, repo *store.Repo, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "badge", "status", "content_type", "created_at"}); err != nil {
		return err
	}

	entries, err := catalog.New(repo).Refresh(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.Badge,
			e.Status,
			e.ContentType,
			e.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
