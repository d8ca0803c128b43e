package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Tutor struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'tutor'" json:"role"`

	Location   string         `gorm:"size:255;not null" json:"location"`
	Bio        string         `gorm:"type:text;not null" json:"bio"`
	Education  string         `gorm:"size:255;not null" json:"education"`
	Experience int            `gorm:"not null;default:0" json:"experience"`
	HourlyRate float64        `gorm:"type:numeric(10,2);not null" json:"hourly_rate"`
	Languages  pq.StringArray `gorm:"type:text[]" json:"languages"`
	Subjects   pq.StringArray `gorm:"type:text[]" json:"subjects"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsVerified bool `gorm:"default:false" json:"is_verified"`

	// AverageRating and TotalRatings are derived from the ratings table and
	// written only by the rating recalculation, never by profile updates.
	AverageRating float64 `gorm:"type:numeric(2,1);default:0" json:"average_rating"`
	TotalRatings  int64   `gorm:"default:0" json:"total_ratings"`

	LastLogin *time.Time `json:"last_login"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Teaches reports whether the tutor lists the subject, ignoring case.
func (t *Tutor) Teaches(subject string) bool {
	for _, s := range t.Subjects {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}
