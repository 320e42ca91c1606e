package repository

import (
	"context"
	"errors"

	"todoapp/internal/apperr"
	"todoapp/internal/models"
	"todoapp/pkg/logger"

	"gorm.io/gorm"
)

var (
	ErrEmailTaken    = apperr.Conflict("User with this email already exists")
	ErrGoogleIDTaken = apperr.Conflict("Google account is already linked to another user")
	ErrNoCredential  = apperr.BadRequest("A password or Google account is required")
)

// Users is the credential store. Emails are normalized before every read and write.
type Users struct {
	db *gorm.DB
}

// FindByEmail returns the user with that email, or nil when absent.
func (r *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", models.NormalizeEmail(email))
}

// FindByID returns the user with that id, or nil when absent.
func (r *Users) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByGoogleID returns the user linked to a Google subject, or nil when absent.
func (r *Users) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.first(ctx, "google_id = ?", googleID)
}

func (r *Users) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository find user failed", "error", err)
		return nil, err
	}
	return &u, nil
}

// Insert creates a user. Duplicate email or Google id fails with Conflict.
func (r *Users) Insert(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if !u.HasCredential() {
		return ErrNoCredential
	}
	if u.GoogleID != nil {
		existing, err := r.FindByGoogleID(ctx, *u.GoogleID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrGoogleIDTaken
		}
	}
	if err := r.db.WithContext(ctx).Omit("Todos").Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		logger.Error(ctx, "Repository insert user failed", "error", err)
		return err
	}
	return nil
}

// Update persists every column of an existing user. A Google id held by
// another user fails with ErrGoogleIDTaken.
func (r *Users) Update(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if u.GoogleID != nil {
		holder, err := r.FindByGoogleID(ctx, *u.GoogleID)
		if err != nil {
			return err
		}
		if holder != nil && holder.ID != u.ID {
			return ErrGoogleIDTaken
		}
	}
	res := r.db.WithContext(ctx).Model(u).Select("*").Omit("id", "created_at", "Todos").Updates(u)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		logger.Error(ctx, "Repository update user failed", "error", res.Error, "id", u.ID)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// Delete removes a user; the foreign key cascades to the user's todos.
func (r *Users) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		logger.Error(ctx, "Repository delete user failed", "error", res.Error, "id", id)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
