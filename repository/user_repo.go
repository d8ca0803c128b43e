package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) AddToWishlist(ctx context.Context, user *models.User, tutor *models.Tutor) error {
	return r.db.WithContext(ctx).Model(user).Association("Wishlist").Append(tutor)
}

func (r *UserRepository) RemoveFromWishlist(ctx context.Context, user *models.User, tutor *models.Tutor) error {
	return r.db.WithContext(ctx).Model(user).Association("Wishlist").Delete(tutor)
}

func (r *UserRepository) GetWishlist(ctx context.Context, userID uuid.UUID) ([]models.Tutor, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Wishlist", "is_active = ?", true).
		First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	tutors := make([]models.Tutor, 0, len(user.Wishlist))
	for _, tutor := range user.Wishlist {
		tutors = append(tutors, *tutor)
	}
	return tutors, nil
}
