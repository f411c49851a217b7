// Bulk-imports every book file in a directory straight into the local
// library database, bypassing the HTTP surface.
package main

import (
	"context"
	"flag"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookhub/internal/importer"
	"bookhub/internal/store"
	"bookhub/pkg/database"
)

func main() {
	var (
		dir     = flag.String("dir", ".", "directory to import book files from")
		recurse = flag.Bool("recurse", false, "descend into subdirectories")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	files, err := collectFiles(*dir, *recurse)
	if err != nil {
		log.Fatalf("scan %s failed: %v", *dir, err)
	}
	if len(files) == 0 {
		log.Fatalf("no book files found in %s", *dir)
	}

	imp := importer.New(store.NewRepo(db), nil)
	results := imp.Import(ctx, files)

	imported := 0
	for _, res := range results {
		if res.Error != "" {
			log.Printf("skipped %s: %s", res.Filename, res.Error)
			continue
		}
		imported++
		log.Printf("imported %s as %q (id %d)", res.Filename, res.Title, res.ID)
	}
	log.Printf("done: %d of %d files imported", imported, len(results))
}

func collectFiles(dir string, recurse bool) ([]importer.File, error) {
	var files []importer.File

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recurse && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			// one unreadable file should not stop the walk
			log.Printf("read %s failed: %v", path, err)
			return nil
		}

		files = append(files, importer.File{
			Name:        d.Name(),
			ContentType: contentTypeFor(d.Name()),
			Data:        data,
		})
		return nil
	})
	return files, err
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".epub":
		return "application/epub+zip"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
