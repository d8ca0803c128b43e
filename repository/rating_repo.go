package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// TutorAggregate is the derived view of a tutor's ratings.
type TutorAggregate struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
}

// CreateAndRecalculate persists a rating and, in the same transaction,
// recomputes the tutor's aggregate from the committed rating set and writes
// it onto the tutor row. The composite unique index makes the insert the
// arbiter between concurrent submissions for the same booking; duplicates
// surface as gorm.ErrDuplicatedKey. Recomputing from the table rather than
// nudging a running average keeps the aggregate correct under concurrent
// submissions for the same tutor's other bookings.
func (r *RatingRepository) CreateAndRecalculate(ctx context.Context, rating *models.Rating) (*TutorAggregate, error) {
	var aggregate TutorAggregate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return err
		}

		err := tx.Model(&models.Rating{}).
			Where("tutor_id = ?", rating.TutorID).
			Select("COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS average_rating, COUNT(*) AS total_ratings").
			Scan(&aggregate).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Tutor{}).
			Where("id = ?", rating.TutorID).
			Updates(map[string]interface{}{
				"average_rating": aggregate.AverageRating,
				"total_ratings":  aggregate.TotalRatings,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &aggregate, nil
}

func (r *RatingRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, page, limit int) ([]models.Rating, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Rating{}).Where("student_id = ?", studentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ratings []models.Rating
	err := query.
		Preload("Tutor").
		Preload("Booking").
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&ratings).Error
	if err != nil {
		return nil, 0, err
	}
	return ratings, total, nil
}

func (r *RatingRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID, page, limit int) ([]models.Rating, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Rating{}).Where("tutor_id = ?", tutorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ratings []models.Rating
	err := query.
		Preload("Student").
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&ratings).Error
	if err != nil {
		return nil, 0, err
	}
	return ratings, total, nil
}
