package jobs

import (
	"context"
	"log"
	"time"

	"slnotes/internal/config"
	"slnotes/internal/repository"
	"slnotes/internal/storage"
)

// StartOrphanSweepJob periodically deletes uploaded files that no note
// references and that are older than the grace period. Covers uploads whose
// follow-up note create never happened.
func StartOrphanSweepJob(ctx context.Context, cfg config.Config, store *repository.Store, uploads *storage.Local) {
	if !cfg.OrphanSweepEnabled {
		return
	}
	interval := cfg.OrphanSweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	grace := cfg.OrphanSweepGrace
	if grace <= 0 {
		grace = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				swept, err := sweepOnce(tickCtx, store, uploads, time.Now().Add(-grace))
				cancel()
				if err != nil {
					log.Printf("orphan sweep error: %v", err)
					continue
				}
				if swept > 0 {
					log.Printf("orphan sweep removed %d files", swept)
				}
			}
		}
	}()
}

func sweepOnce(ctx context.Context, store *repository.Store, uploads *storage.Local, cutoff time.Time) (int, error) {
	urls, err := store.NoteFileURLs(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]bool, len(urls))
	for _, url := range urls {
		referenced[url] = true
	}

	candidates, err := uploads.ListOlderThan(cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, name := range candidates {
		if referenced["/uploads/"+name] {
			continue
		}
		if err := uploads.Delete(name); err != nil {
			log.Printf("orphan sweep delete %s: %v", name, err)
			continue
		}
		swept++
	}
	return swept, nil
}
