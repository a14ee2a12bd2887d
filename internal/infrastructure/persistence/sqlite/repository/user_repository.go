package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/infrastructure/persistence/sqlite/model"
	"appcatalog/internal/ports"
)

type UserRepository struct {
	conn
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{conn: conn{db: db}}
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.User
	if err := db.Order("row_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query users")
	}

	items := make([]ports.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapUser(row))
	}
	return items, nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}
	row, err := takeUser(db.Where("id = ?", id))
	if err != nil {
		return ports.User{}, err
	}
	return mapUser(row), nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}
	row, err := takeUser(db.Where("email = ?", account.NormalizeEmail(email)))
	if err != nil {
		return ports.User{}, err
	}
	return mapUser(row), nil
}

func (r *UserRepository) CreateUser(ctx context.Context, input ports.UserCreate) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	row := model.User{
		ID:           uuid.NewString(),
		Email:        account.NormalizeEmail(input.Email),
		PasswordHash: input.PasswordHash,
		IsEditor:     input.IsEditor,
		IsAdmin:      input.IsAdmin,
	}
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.User{}, account.ErrEmailTaken
		}
		return ports.User{}, errs.Wrap(err, "insert user")
	}
	return mapUser(row), nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, id string, input ports.UserUpdate) (ports.User, error) {
	var updated model.User
	if err := r.inTx(ctx, func(ctx context.Context) error {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}

		row, err := takeUser(db.Where("id = ?", id))
		if err != nil {
			return err
		}
		if input.Email != nil {
			row.Email = account.NormalizeEmail(*input.Email)
		}
		if input.IsEditor != nil {
			row.IsEditor = *input.IsEditor
		}
		if input.IsAdmin != nil {
			row.IsAdmin = *input.IsAdmin
		}

		if err := db.Save(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return account.ErrEmailTaken
			}
			return errs.Wrap(err, "update user")
		}
		updated = row
		return nil
	}); err != nil {
		return ports.User{}, err
	}
	return mapUser(updated), nil
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id string, hash string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update password hash")
	}
	if result.RowsAffected == 0 {
		return account.ErrUserNotFound
	}
	return nil
}

func takeUser(query *gorm.DB) (model.User, error) {
	var row model.User
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, account.ErrUserNotFound
		}
		return model.User{}, errs.Wrap(err, "query user")
	}
	return row, nil
}

func mapUser(row model.User) ports.User {
	return ports.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsEditor:     row.IsEditor,
		IsAdmin:      row.IsAdmin,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
