package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA busy_timeout=5000;")

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestUsageLedger_Totals_EmptyAndError(t *testing.T) {
	ctx := context.Background()

	// No table: Find fails and the error propagates.
	l := NewUsageLedger(newRepoDB(t /* no migrations */))
	if _, err := l.Totals(ctx, "u1", "2025-06-01"); err == nil {
		t.Fatalf("expected error when table missing")
	}

	// Fresh user reads as an empty map, not nil rows per category.
	l = NewUsageLedger(newRepoDB(t, &domain.UsageEntry{}))
	got, err := l.Totals(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty totals, got %v", got)
	}
}

func TestUsageLedger_Add_InsertsThenIncrements(t *testing.T) {
	ctx := context.Background()
	l := NewUsageLedger(newRepoDB(t, &domain.UsageEntry{}))

	if err := l.Add(ctx, "u1", "2025-06-01", domain.CategoryParaphrase, 40); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := l.Add(ctx, "u1", "2025-06-01", domain.CategoryParaphrase, 60); err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if err := l.Add(ctx, "u1", "2025-06-01", domain.CategoryDetect, 7); err != nil {
		t.Fatalf("detect Add: %v", err)
	}
	// Other user and other day must stay isolated.
	if err := l.Add(ctx, "u2", "2025-06-01", domain.CategoryParaphrase, 999); err != nil {
		t.Fatalf("other user Add: %v", err)
	}
	if err := l.Add(ctx, "u1", "2025-06-02", domain.CategoryParaphrase, 3); err != nil {
		t.Fatalf("other day Add: %v", err)
	}

	got, err := l.Totals(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if got[domain.CategoryParaphrase] != 100 || got[domain.CategoryDetect] != 7 {
		t.Fatalf("unexpected totals: %v", got)
	}
}

func TestUsageLedger_Add_ConcurrentNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	l := NewUsageLedger(newRepoDB(t, &domain.UsageEntry{}))

	const goroutines = 20
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Add(ctx, "u1", "2025-06-01", domain.CategoryParaphrase, 10)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Add: %v", err)
		}
	}

	got, err := l.Totals(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if got[domain.CategoryParaphrase] != goroutines*10 {
		t.Fatalf("expected %d words, got %d", goroutines*10, got[domain.CategoryParaphrase])
	}
}

func TestUsageLedger_Reset_ZeroesAllCategories(t *testing.T) {
	ctx := context.Background()
	l := NewUsageLedger(newRepoDB(t, &domain.UsageEntry{}))

	if err := l.Add(ctx, "u1", "2025-06-01", domain.CategoryParaphrase, 500); err != nil {
		t.Fatalf("seed paraphrase: %v", err)
	}
	if err := l.Add(ctx, "u1", "2025-06-01", domain.CategoryDetect, 50); err != nil {
		t.Fatalf("seed detect: %v", err)
	}
	if err := l.Add(ctx, "u1", "2025-06-02", domain.CategoryParaphrase, 9); err != nil {
		t.Fatalf("seed other day: %v", err)
	}

	if err := l.Reset(ctx, "u1", "2025-06-01"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	got, err := l.Totals(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if got[domain.CategoryParaphrase] != 0 || got[domain.CategoryDetect] != 0 {
		t.Fatalf("expected zeroed totals, got %v", got)
	}

	// The untouched day keeps its count.
	other, err := l.Totals(ctx, "u1", "2025-06-02")
	if err != nil {
		t.Fatalf("Totals other day: %v", err)
	}
	if other[domain.CategoryParaphrase] != 9 {
		t.Fatalf("expected other day untouched, got %v", other)
	}
}
