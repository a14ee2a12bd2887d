package ports

import (
	"context"
	"time"

	"appcatalog/internal/domain/catalog"
)

type App struct {
	ID        string
	Name      string
	URL       string
	Embed     string
	Approval  catalog.ApprovalStatus
	Privacy   catalog.PrivacyStatus
	Platforms []catalog.Platform
	Grades    []catalog.GradeLevel
	Subjects  []catalog.Subject
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields returns the editable part of the app.
func (a App) Fields() catalog.Fields {
	return catalog.Fields{
		Name:      a.Name,
		URL:       a.URL,
		Embed:     a.Embed,
		Approval:  a.Approval,
		Privacy:   a.Privacy,
		Platforms: a.Platforms,
		Grades:    a.Grades,
		Subjects:  a.Subjects,
	}
}

// AppRepository returns catalog.ErrAppNotFound for unknown ids.
type AppRepository interface {
	// ListApps returns every app in creation order.
	ListApps(ctx context.Context) ([]App, error)
	GetApp(ctx context.Context, id string) (App, error)
	CreateApp(ctx context.Context, fields catalog.Fields) (App, error)
	BulkCreateApps(ctx context.Context, fields []catalog.Fields) ([]App, error)
	UpdateApp(ctx context.Context, id string, fields catalog.Fields) (App, error)
	DeleteApp(ctx context.Context, id string) error
}
