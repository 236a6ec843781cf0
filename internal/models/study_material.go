package models

import "time"

// StudyMaterial is a shared file with moderation and rating aggregates.
type StudyMaterial struct {
	ID            string     `db:"id" json:"id"`
	UploaderID    string     `db:"uploader_id" json:"uploader_id"`
	Title         string     `db:"title" json:"title"`
	Description   *string    `db:"description" json:"description,omitempty"`
	SubjectCode   *string    `db:"subject_code" json:"subject_code,omitempty"`
	SubjectName   *string    `db:"subject_name" json:"subject_name,omitempty"`
	FileName      string     `db:"file_name" json:"file_name"`
	FilePath      string     `db:"file_path" json:"-"`
	FileSize      int64      `db:"file_size" json:"file_size"`
	FileType      string     `db:"file_type" json:"file_type"`
	Tags          StringList `db:"tags" json:"tags"`
	IsApproved    bool       `db:"is_approved" json:"is_approved"`
	ApprovedBy    *string    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	DownloadCount int        `db:"download_count" json:"download_count"`
	Rating        float64    `db:"rating" json:"rating"`
	RatingCount   int        `db:"rating_count" json:"rating_count"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudyMaterialDownload records one download by one user.
type StudyMaterialDownload struct {
	ID           string    `db:"id" json:"id"`
	MaterialID   string    `db:"material_id" json:"material_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloaded_at"`
}

// StudyMaterialRating is unique per (material, user); rating again replaces it.
type StudyMaterialRating struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Rating     int       `db:"rating" json:"rating"`
	Review     *string   `db:"review" json:"review,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// UploadMaterialRequest carries the form fields of a material upload.
type UploadMaterialRequest struct {
	Title       string   `form:"title" validate:"required,min=1,max=255"`
	Description *string  `form:"description" validate:"omitempty,max=5000"`
	SubjectCode *string  `form:"subject_code" validate:"omitempty,max=50"`
	SubjectName *string  `form:"subject_name" validate:"omitempty,max=255"`
	Tags        []string `form:"-" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// RateMaterialRequest rates an approved material.
type RateMaterialRequest struct {
	Rating int     `json:"rating" validate:"required,min=1,max=5"`
	Review *string `json:"review" validate:"omitempty,max=2000"`
}

// StudyMaterialFilter narrows the material catalogue.
type StudyMaterialFilter struct {
	SubjectCode  string
	SubjectName  string
	ApprovedOnly bool
	// ViewerID and IncludeAll are set by the service, not by the caller.
	ViewerID   string
	IncludeAll bool
	Page       int
	PageSize   int
}

// DownloadTicket is returned when a download is recorded.
type DownloadTicket struct {
	MaterialID    string    `json:"material_id"`
	FileName      string    `json:"file_name"`
	DownloadURL   string    `json:"download_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	DownloadCount int       `json:"download_count"`
}

// StudyMaterialStats summarises the catalogue.
type StudyMaterialStats struct {
	TotalMaterials    int     `db:"total_materials" json:"total_materials"`
	ApprovedMaterials int     `db:"approved_materials" json:"approved_materials"`
	PendingMaterials  int     `db:"pending_materials" json:"pending_materials"`
	TotalDownloads    int     `db:"total_downloads" json:"total_downloads"`
	AverageRating     float64 `db:"average_rating" json:"average_rating"`
}

// SubjectPopularity ranks subjects by downloads.
type SubjectPopularity struct {
	SubjectCode    string `db:"subject_code" json:"subject_code"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	MaterialCount  int    `db:"material_count" json:"material_count"`
	TotalDownloads int    `db:"total_downloads" json:"total_downloads"`
}
