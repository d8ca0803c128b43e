package handlers

import (
	config "github.com/jsquad/tutor_marketplace/configs"
	"github.com/jsquad/tutor_marketplace/database"
	"github.com/jsquad/tutor_marketplace/repository"
	"github.com/jsquad/tutor_marketplace/services"
)

var (
	userRepo    *repository.UserRepository
	tutorRepo   *repository.TutorRepository
	bookingRepo *repository.BookingRepository
	ratingRepo  *repository.RatingRepository

	bookingService *services.BookingService
	lessonService  *services.LessonService
	ratingService  *services.RatingService
)

// InitServices wires the repositories and services onto the shared database
// handle. Must run after database.ConnectDB and before any route is served.
func InitServices() {
	policy := config.LoadBookingPolicy()

	userRepo = repository.NewUserRepository(database.DB)
	tutorRepo = repository.NewTutorRepository(database.DB)
	bookingRepo = repository.NewBookingRepository(database.DB)
	ratingRepo = repository.NewRatingRepository(database.DB)

	bookingService = services.NewBookingService(bookingRepo, tutorRepo, policy)
	lessonService = services.NewLessonService(bookingRepo, policy)
	ratingService = services.NewRatingService(bookingRepo, ratingRepo)
}
