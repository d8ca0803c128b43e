package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
)

type TutorRepository struct {
	db *gorm.DB
}

func NewTutorRepository(db *gorm.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

func (r *TutorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tutor, error) {
	var tutor models.Tutor
	if err := r.db.WithContext(ctx).First(&tutor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tutor, nil
}

func (r *TutorRepository) GetByEmail(ctx context.Context, email string) (*models.Tutor, error) {
	var tutor models.Tutor
	if err := r.db.WithContext(ctx).First(&tutor, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &tutor, nil
}

func (r *TutorRepository) Create(ctx context.Context, tutor *models.Tutor) error {
	return r.db.WithContext(ctx).Create(tutor).Error
}

func (r *TutorRepository) Save(ctx context.Context, tutor *models.Tutor) error {
	return r.db.WithContext(ctx).Save(tutor).Error
}

// UpdateProfile writes the given profile columns only. Rating aggregates are
// owned by the rating recalculation and must never appear in updates here.
func (r *TutorRepository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Tutor, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Tutor{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *TutorRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Tutor{}).
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

func (r *TutorRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tutor, error) {
	var tutors []models.Tutor
	if len(ids) == 0 {
		return tutors, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tutors).Error
	return tutors, err
}

type TutorSearchFilter struct {
	Subject    string
	Location   string
	MinRate    *float64
	MaxRate    *float64
	MinRating  *float64
	ActiveOnly bool
	Page       int
	Limit      int
	SortBy     string
	SortDesc   bool
}

var tutorSortColumns = map[string]string{
	"average_rating": "average_rating",
	"hourly_rate":    "hourly_rate",
	"experience":     "experience",
	"created_at":     "created_at",
}

func (r *TutorRepository) Search(ctx context.Context, filter TutorSearchFilter) ([]models.Tutor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Tutor{})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Subject != "" {
		query = query.Where("EXISTS (SELECT 1 FROM unnest(subjects) AS s WHERE s ILIKE ?)", "%"+filter.Subject+"%")
	}
	if filter.Location != "" {
		query = query.Where("location ILIKE ?", "%"+filter.Location+"%")
	}
	if filter.MinRate != nil {
		query = query.Where("hourly_rate >= ?", *filter.MinRate)
	}
	if filter.MaxRate != nil {
		query = query.Where("hourly_rate <= ?", *filter.MaxRate)
	}
	if filter.MinRating != nil {
		query = query.Where("average_rating >= ?", *filter.MinRating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := tutorSortColumns[filter.SortBy]
	if !ok {
		column = "average_rating"
	}
	direction := "desc"
	if !filter.SortDesc && filter.SortBy != "" {
		direction = "asc"
	}

	var tutors []models.Tutor
	err := query.
		Order(column + " " + direction).
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&tutors).Error
	if err != nil {
		return nil, 0, err
	}
	return tutors, total, nil
}
