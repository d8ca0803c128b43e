package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/repository"
)

type ratingStore interface {
	CreateAndRecalculate(ctx context.Context, rating *models.Rating) (*repository.TutorAggregate, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, page, limit int) ([]models.Rating, int64, error)
	ListByTutor(ctx context.Context, tutorID uuid.UUID, page, limit int) ([]models.Rating, int64, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// RatingService accepts post-lesson ratings and keeps each tutor's aggregate
// (average to one decimal, total count) in step with the rating table. It is
// the only writer of those tutor fields.
type RatingService struct {
	bookings bookingReader
	ratings  ratingStore
}

func NewRatingService(bookings bookingReader, ratings ratingStore) *RatingService {
	return &RatingService{bookings: bookings, ratings: ratings}
}

type SubmitRatingInput struct {
	TutorID   uuid.UUID
	BookingID uuid.UUID
	Rating    int
	Comment   string
}

// Submit persists one rating for a completed lesson and returns it together
// with the tutor's recalculated aggregate. Duplicate submissions for the
// same booking lose the race on the store's uniqueness constraint, not on a
// pre-check, so two concurrent calls cannot both succeed.
func (s *RatingService) Submit(ctx context.Context, studentID uuid.UUID, input SubmitRatingInput) (*models.Rating, *repository.TutorAggregate, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrBookingNotFound
		}
		return nil, nil, err
	}
	if booking.StudentID != studentID || booking.TutorID != input.TutorID {
		return nil, nil, ErrRatingNotAllowed
	}
	if !booking.CanBeRated() {
		return nil, nil, ErrRatingNotAllowed
	}

	rating := &models.Rating{
		StudentID: studentID,
		TutorID:   input.TutorID,
		BookingID: input.BookingID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}

	aggregate, err := s.ratings.CreateAndRecalculate(ctx, rating)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrDuplicateRating
		}
		return nil, nil, err
	}
	return rating, aggregate, nil
}

func (s *RatingService) ListByStudent(ctx context.Context, studentID uuid.UUID, page, limit int) ([]models.Rating, int64, error) {
	return s.ratings.ListByStudent(ctx, studentID, page, limit)
}

func (s *RatingService) ListByTutor(ctx context.Context, tutorID uuid.UUID, page, limit int) ([]models.Rating, int64, error) {
	return s.ratings.ListByTutor(ctx, tutorID, page, limit)
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
