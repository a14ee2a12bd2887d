package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"appcatalog/internal/domain/account"
	"appcatalog/internal/domain/catalog"
	"appcatalog/internal/infrastructure/persistence/schema"
	"appcatalog/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "catalog.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := schema.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func appFields(name string) catalog.Fields {
	return catalog.Fields{
		Name:      name,
		Approval:  catalog.ApprovalPending,
		Privacy:   catalog.PrivacyUnknown,
		Platforms: []catalog.Platform{catalog.PlatformWeb},
		Grades:    []catalog.GradeLevel{catalog.Grade3},
		Subjects:  []catalog.Subject{},
	}
}

func TestAppRepositoryListsInCreationOrder(t *testing.T) {
	repo := NewAppRepository(setupDB(t))
	ctx := context.Background()

	first, err := repo.CreateApp(ctx, appFields("first"))
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}
	bulk, err := repo.BulkCreateApps(ctx, []catalog.Fields{appFields("second"), appFields("third")})
	if err != nil {
		t.Fatalf("BulkCreateApps() error = %v", err)
	}
	if len(bulk) != 2 || bulk[0].ID == "" || bulk[0].ID == bulk[1].ID {
		t.Fatalf("BulkCreateApps() = %+v", bulk)
	}

	items, err := repo.ListApps(ctx)
	if err != nil {
		t.Fatalf("ListApps() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ListApps() len = %d", len(items))
	}
	if items[0].ID != first.ID || items[1].Name != "second" || items[2].Name != "third" {
		t.Fatalf("ListApps() order = %s,%s,%s", items[0].Name, items[1].Name, items[2].Name)
	}
	if len(items[0].Platforms) != 1 || items[0].Platforms[0] != catalog.PlatformWeb {
		t.Fatalf("Platforms = %v", items[0].Platforms)
	}
}

func TestAppRepositoryUpdateAndDelete(t *testing.T) {
	repo := NewAppRepository(setupDB(t))
	ctx := context.Background()

	created, err := repo.CreateApp(ctx, appFields("draft"))
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}

	fields := created.Fields()
	fields.Name = "final"
	fields.Approval = catalog.ApprovalApproved
	updated, err := repo.UpdateApp(ctx, created.ID, fields)
	if err != nil {
		t.Fatalf("UpdateApp() error = %v", err)
	}
	if updated.Name != "final" || updated.Approval != catalog.ApprovalApproved || updated.ID != created.ID {
		t.Fatalf("UpdateApp() = %+v", updated)
	}

	got, err := repo.GetApp(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetApp() error = %v", err)
	}
	if got.Name != "final" {
		t.Fatalf("GetApp().Name = %q", got.Name)
	}

	if err := repo.DeleteApp(ctx, created.ID); err != nil {
		t.Fatalf("DeleteApp() error = %v", err)
	}
	if _, err := repo.GetApp(ctx, created.ID); !errors.Is(err, catalog.ErrAppNotFound) {
		t.Fatalf("GetApp() after delete error = %v", err)
	}
	if err := repo.DeleteApp(ctx, created.ID); !errors.Is(err, catalog.ErrAppNotFound) {
		t.Fatalf("DeleteApp() twice error = %v", err)
	}
	if _, err := repo.UpdateApp(ctx, created.ID, fields); !errors.Is(err, catalog.ErrAppNotFound) {
		t.Fatalf("UpdateApp() missing error = %v", err)
	}
}

func TestUserRepositoryCreateDuplicateAndUpdate(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, ports.UserCreate{Email: " Educator@School.org ", PasswordHash: "h1"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if created.Email != "educator@school.org" {
		t.Fatalf("CreateUser().Email = %q", created.Email)
	}

	if _, err := repo.CreateUser(ctx, ports.UserCreate{Email: "educator@school.org", PasswordHash: "h2"}); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("CreateUser() duplicate error = %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "EDUCATOR@school.org")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("GetUserByEmail().ID = %q", byEmail.ID)
	}

	editor := true
	updated, err := repo.UpdateUser(ctx, created.ID, ports.UserUpdate{IsEditor: &editor})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if !updated.IsEditor || updated.IsAdmin || updated.Email != "educator@school.org" {
		t.Fatalf("UpdateUser() = %+v", updated)
	}

	if err := repo.SetPasswordHash(ctx, created.ID, "h3"); err != nil {
		t.Fatalf("SetPasswordHash() error = %v", err)
	}
	got, err := repo.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.PasswordHash != "h3" {
		t.Fatalf("PasswordHash = %q", got.PasswordHash)
	}

	if err := repo.SetPasswordHash(ctx, "missing", "h"); !errors.Is(err, account.ErrUserNotFound) {
		t.Fatalf("SetPasswordHash() missing error = %v", err)
	}
}

func TestUserRepositoryUpdateEmailConflict(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, ports.UserCreate{Email: "a@school.org", PasswordHash: "h"}); err != nil {
		t.Fatalf("CreateUser(a) error = %v", err)
	}
	b, err := repo.CreateUser(ctx, ports.UserCreate{Email: "b@school.org", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser(b) error = %v", err)
	}

	taken := "a@school.org"
	if _, err := repo.UpdateUser(ctx, b.ID, ports.UserUpdate{Email: &taken}); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("UpdateUser() error = %v, want ErrEmailTaken", err)
	}
}
