package model

import "mime/multipart"

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

const (
	JobTypeChapterUpload  = "CHAPTER_UPLOAD"
	JobTypeChapterExtract = "CHAPTER_EXTRACT"
)

// Job tracks one step of the chapter ingestion pipeline. Item carries the
// in-flight payload (multipart header, extract request) and is never stored.
type Job struct {
	ID        int64  `json:"id"`
	UserID    int32  `json:"user_id"`
	Path      string `json:"path"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
	CreatedTs int64  `json:"created_ts"`

	Item interface{} `json:"-"`
}

// UploadRequest is the in-flight payload of a CHAPTER_UPLOAD job.
type UploadRequest struct {
	FileHeader *multipart.FileHeader
	Meta       MangaCreateRequest
}

// ExtractRequest is the payload handed from the upload pool to the extract
// pool once the archive is on disk.
type ExtractRequest struct {
	ArchivePath string
	Meta        MangaCreateRequest
}
