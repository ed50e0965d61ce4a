// Command import_expenses ingests expenses from CSV files dropped into a
// directory. Each row is "date,amount,description" (date ISO 2006-01-02,
// amount decimal). With -watch it stays running and picks up newly created
// files; processed files are renamed with a .done suffix so a rescan never
// double-records them.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"marate/pkg/gormstore"
	"marate/pkg/ledger"
)

var (
	dir      = flag.String("dir", "imports", "directory with CSV files to ingest")
	watch    = flag.Bool("watch", false, "keep watching the directory for new files")
	workers  = flag.Int("workers", 4, "concurrent file workers")
	username = flag.String("user", "admin", "record expenses as this user")
)

func main() {
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	store := gormstore.New(db)
	engine := ledger.New(store, nil, slog.Default())

	ctx := context.Background()
	principal, err := engine.PrincipalByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("unknown user %q: %v", *username, err)
	}

	fileCh := make(chan string, 256)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			for name := range fileCh {
				if err := importFile(gctx, engine, principal, name); err != nil {
					log.Printf("import %s failed: %v", name, err)
				}
			}
			return nil
		})
	}

	for _, name := range listCSVFiles(*dir) {
		fileCh <- name
	}

	if *watch {
		if err := watchDirectory(*dir, fileCh); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
	close(fileCh)
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

func listCSVFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isImportable(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out
}

func isImportable(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv") && !strings.HasSuffix(name, ".done")
}

// watchDirectory forwards newly created CSV files to fileCh, debounced so a
// file still being written is not picked up mid-copy. Blocks until the
// watcher fails; Ctrl+C to exit.
func watchDirectory(dir string, fileCh chan<- string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create && isImportable(filepath.Base(ev.Name)) {
				pending[ev.Name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // stable
					fileCh <- name
					delete(pending, name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// importFile records one expense per CSV row and renames the file when done.
// A row that fails validation is logged and skipped; the rest of the file
// still imports.
func importFile(ctx context.Context, engine *ledger.Engine, p ledger.Principal, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	line := 0
	imported := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("%s line %d: %v", path, line, err)
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			log.Printf("%s line %d: bad date %q", path, line, rec[0])
			continue
		}
		if _, err := engine.RecordExpense(ctx, p, rec[2], rec[1], date); err != nil {
			log.Printf("%s line %d: %v", path, line, err)
			continue
		}
		imported++
	}
	log.Printf("%s: imported %d expenses", path, imported)
	return os.Rename(path, path+".done")
}
