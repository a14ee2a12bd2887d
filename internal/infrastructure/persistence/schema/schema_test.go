package schema

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateRecordsVersionIdempotently(t *testing.T) {
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "schema.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx := context.Background()

	before, err := CurrentVersion(ctx, db)
	if err == nil && before != "" {
		t.Fatalf("CurrentVersion() before migrate = %q", before)
	}

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("Migrate() #%d error = %v", i+1, err)
		}
	}

	got, err := CurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("CurrentVersion() error = %v", err)
	}
	if got != Version {
		t.Fatalf("CurrentVersion() = %q, want %q", got, Version)
	}

	var count int64
	if err := db.Model(&Meta{}).Count(&count).Error; err != nil {
		t.Fatalf("count meta: %v", err)
	}
	if count != 1 {
		t.Fatalf("schema_meta rows = %d, want 1", count)
	}
}
