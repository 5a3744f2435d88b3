package models

import "time"

// ResourceCategory enumerates the fixed category set for library resources.
type ResourceCategory string

const (
	CategoryTextbooks      ResourceCategory = "textbooks"
	CategoryResearchPapers ResourceCategory = "research-papers"
	CategoryStudyGuides    ResourceCategory = "study-guides"
	CategoryLectureNotes   ResourceCategory = "lecture-notes"
	CategoryVideos         ResourceCategory = "videos"
)

// Categories lists every accepted resource category.
var Categories = []ResourceCategory{
	CategoryTextbooks,
	CategoryResearchPapers,
	CategoryStudyGuides,
	CategoryLectureNotes,
	CategoryVideos,
}

// Valid reports whether the category belongs to the fixed set.
func (c ResourceCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Resource represents an uploaded PDF document with its metadata. FileData is
// immutable once stored; OneStarCount and HasRedFlag are derived moderation
// fields maintained by the moderation engine and must always satisfy
// HasRedFlag == (OneStarCount >= red flag threshold).
type Resource struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Description    string           `db:"description" json:"description"`
	Category       ResourceCategory `db:"category" json:"category"`
	FileName       string           `db:"file_name" json:"file_name"`
	FileSize       string           `db:"file_size" json:"file_size"`
	FileData       []byte           `db:"file_data" json:"-"`
	UploadedBy     string           `db:"uploaded_by" json:"uploaded_by"`
	UploadedByName string           `db:"uploaded_by_name" json:"uploaded_by_name"`
	OneStarCount   int              `db:"one_star_count" json:"one_star_count"`
	HasRedFlag     bool             `db:"has_red_flag" json:"has_red_flag"`
	UploadedAt     time.Time        `db:"uploaded_at" json:"uploaded_at"`
}

// ResourceFilter captures listing criteria for resources.
type ResourceFilter struct {
	Category *ResourceCategory
	Search   string
	Page     int
	PageSize int
}
