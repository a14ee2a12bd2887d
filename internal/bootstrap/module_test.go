package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/fx"
)

func TestModuleAssemblesApp(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`database:
  driver: sqlite
  dsn: %s
log:
  level: debug
  format: json
cache:
  apps_ttl: 5s
auth:
  admin_emails: ["Root@Example.org"]
`, filepath.Join(dir, "catalog.sqlite"))
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := context.Background()
	var logs bytes.Buffer
	var app *App
	fxApp := fx.New(
		Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return configFile },
				fx.ResultTags(`name:"configFile"`),
			),
			fx.Annotate(
				func() io.Writer { return &logs },
				fx.ResultTags(`name:"logOutput"`),
			),
		),
		fx.Populate(&app),
	)

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		_ = fxApp.Stop(context.Background())
	})

	if app.Config.Cache.AppsTTL != 5*time.Second {
		t.Fatalf("AppsTTL = %s", app.Config.Cache.AppsTTL)
	}
	if app.Catalog.Cache().TTL() != 5*time.Second {
		t.Fatalf("apps cache ttl = %s", app.Catalog.Cache().TTL())
	}
	if !app.Accounts.IsAdminEmail("root@example.org") {
		t.Fatalf("admin email not normalized")
	}
	if err := app.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	apps, err := app.Catalog.ListApps(ctx)
	if err != nil {
		t.Fatalf("ListApps() error = %v", err)
	}
	if len(apps) != 0 {
		t.Fatalf("ListApps() = %d apps, want 0", len(apps))
	}
	if app.API == nil || app.KV == nil || app.Logger == nil {
		t.Fatalf("app not fully assembled: %+v", app)
	}
}
