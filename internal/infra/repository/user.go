package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm/clause"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/infra/database/models"
)

type UserRepository struct {
	base
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	model := models.User{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Password: user.PasswordHash,
	}
	if err := db.Clauses(clause.Returning{}).Create(&model).Error; err != nil {
		return domain.User{}, err
	}

	r.s.users.Set(model.ID, true, cache.DefaultExpiration)
	return domain.User{
		ID:           model.ID,
		Email:        model.Email,
		Username:     model.Username,
		PasswordHash: model.Password,
		CreatedAt:    model.CreatedAt,
	}, nil
}

// Exists caches positive answers only; a user created elsewhere is seen immediately.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	if _, found := r.s.users.Get(id); found {
		return true, nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	r.s.users.Set(id, true, cache.DefaultExpiration)
	return true, nil
}
