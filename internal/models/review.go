package models

import "time"

// Review is a student-submitted rating and comment tied to one resource.
// Reviews are immutable after creation.
type Review struct {
	ID          string    `db:"id" json:"id"`
	ResourceID  string    `db:"resource_id" json:"resource_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RatingStats aggregates review counts for one resource. OneStarCount is the
// exact integer the moderation engine compares against its thresholds; the
// average is derived from Sum/Count and rounded only for display.
type RatingStats struct {
	ReviewCount  int `db:"review_count"`
	RatingSum    int `db:"rating_sum"`
	OneStarCount int `db:"one_star_count"`
}
