package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"appcatalog/internal/domain/catalog"
	"appcatalog/internal/errs"
	"appcatalog/internal/infrastructure/persistence/sqlite/model"
	"appcatalog/internal/ports"
)

type AppRepository struct {
	conn
}

var _ ports.AppRepository = (*AppRepository)(nil)

func NewAppRepository(db *gorm.DB) *AppRepository {
	return &AppRepository{conn: conn{db: db}}
}

func (r *AppRepository) ListApps(ctx context.Context) ([]ports.App, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.App
	if err := db.Order("row_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query apps")
	}

	items := make([]ports.App, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapApp(row))
	}
	return items, nil
}

func (r *AppRepository) GetApp(ctx context.Context, id string) (ports.App, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.App{}, err
	}

	row, err := getAppRow(db, id)
	if err != nil {
		return ports.App{}, err
	}
	return mapApp(row), nil
}

func (r *AppRepository) CreateApp(ctx context.Context, fields catalog.Fields) (ports.App, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.App{}, err
	}

	row := newAppRow(fields)
	if err := db.Create(&row).Error; err != nil {
		return ports.App{}, errs.Wrap(err, "insert app")
	}
	return mapApp(row), nil
}

func (r *AppRepository) BulkCreateApps(ctx context.Context, fields []catalog.Fields) ([]ports.App, error) {
	if len(fields) == 0 {
		return []ports.App{}, nil
	}

	rows := make([]model.App, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, newAppRow(f))
	}

	if err := r.inTx(ctx, func(ctx context.Context) error {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}
		if err := db.Create(&rows).Error; err != nil {
			return errs.Wrap(err, "bulk insert apps")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	items := make([]ports.App, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapApp(row))
	}
	return items, nil
}

func (r *AppRepository) UpdateApp(ctx context.Context, id string, fields catalog.Fields) (ports.App, error) {
	var updated model.App
	if err := r.inTx(ctx, func(ctx context.Context) error {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}

		row, err := getAppRow(db, id)
		if err != nil {
			return err
		}
		applyAppFields(&row, fields)
		if err := db.Save(&row).Error; err != nil {
			return errs.Wrap(err, "update app")
		}
		updated = row
		return nil
	}); err != nil {
		return ports.App{}, err
	}
	return mapApp(updated), nil
}

func (r *AppRepository) DeleteApp(ctx context.Context, id string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&model.App{})
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete app")
	}
	if result.RowsAffected == 0 {
		return catalog.ErrAppNotFound
	}
	return nil
}

func getAppRow(db *gorm.DB, id string) (model.App, error) {
	var row model.App
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.App{}, catalog.ErrAppNotFound
		}
		return model.App{}, errs.Wrap(err, "query app")
	}
	return row, nil
}

func newAppRow(fields catalog.Fields) model.App {
	row := model.App{ID: uuid.NewString()}
	applyAppFields(&row, fields)
	return row
}

func applyAppFields(row *model.App, fields catalog.Fields) {
	row.Name = fields.Name
	row.URL = fields.URL
	row.Embed = fields.Embed
	row.Approval = string(fields.Approval)
	row.Privacy = string(fields.Privacy)
	row.Platforms = toStrings(fields.Platforms)
	row.Grades = toStrings(fields.Grades)
	row.Subjects = toStrings(fields.Subjects)
}

func mapApp(row model.App) ports.App {
	return ports.App{
		ID:        row.ID,
		Name:      row.Name,
		URL:       row.URL,
		Embed:     row.Embed,
		Approval:  catalog.ApprovalStatus(row.Approval),
		Privacy:   catalog.PrivacyStatus(row.Privacy),
		Platforms: fromStrings[catalog.Platform](row.Platforms),
		Grades:    fromStrings[catalog.GradeLevel](row.Grades),
		Subjects:  fromStrings[catalog.Subject](row.Subjects),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toStrings[E ~string](values []E) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func fromStrings[E ~string](values []string) []E {
	out := make([]E, 0, len(values))
	for _, v := range values {
		out = append(out, E(v))
	}
	return out
}
