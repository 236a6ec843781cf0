package models

import "time"

// UploadedFile describes a generic upload owned by a user.
type UploadedFile struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name,omitempty"`
	FileType     string    `json:"file_type,omitempty"`
	Description  string    `json:"description,omitempty"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	DownloadURL  string    `json:"download_url"`
	PublicURL    string    `json:"public_url,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// UploadFailure reports a rejected file in a batch upload.
type UploadFailure struct {
	OriginalName string `json:"original_name"`
	Reason       string `json:"reason"`
}

// BatchUploadResult is returned by the multi-file upload.
type BatchUploadResult struct {
	Uploaded []UploadedFile  `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}
