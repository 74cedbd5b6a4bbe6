// Package repository provides data access for users and scans.
package repository

import (
	"context"
	"errors"

	"github.com/Anomaly-E-E/Falco/models"

	"gorm.io/gorm"
)

// ErrCreditConflict is returned when a conditional credit decrement
// matched no row, meaning the balance changed since it was read.
var ErrCreditConflict = errors.New("credit balance changed concurrently")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	MarkVerified(ctx context.Context, id uint) error
	DeductCredit(ctx context.Context, id uint, expected int) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil for not found, not an error
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// MarkVerified flips the verification flag and clears the single-use token.
func (r *userRepository) MarkVerified(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_verified":        true,
			"verification_token": nil,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeductCredit decrements the balance by one, guarded by the previously
// read value. The update only applies while the stored balance still
// equals expected; a concurrent spend makes it match nothing and the
// call fails with ErrCreditConflict instead of double-spending.
func (r *userRepository) DeductCredit(ctx context.Context, id uint, expected int) error {
	if expected < 1 {
		return ErrCreditConflict
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND credits = ?", id, expected).
		Update("credits", expected-1)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCreditConflict
	}
	return nil
}
