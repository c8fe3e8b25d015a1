package transport

import "time"

// StartImportRequest points at a CSV already staged in object storage.
type StartImportRequest struct {
	ObjectKey string `json:"objectKey" validate:"required,min=1,max=500"`
	FileName  string `json:"fileName" validate:"required,min=1,max=255"`
	CreatedBy string `json:"createdBy" validate:"required,min=1,max=100"`
}

// StartImportResponse acknowledges an accepted import job.
type StartImportResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// UploadURLRequest asks for a presigned PUT link for an import file.
type UploadURLRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required,min=1,max=100"`
}

// JobResponse is an import job as exposed over HTTP.
type JobResponse struct {
	ID            string     `json:"id"`
	FileName      string     `json:"fileName"`
	CreatedBy     string     `json:"createdBy"`
	Status        string     `json:"status"`
	TotalRows     int        `json:"totalRows"`
	ProcessedRows int        `json:"processedRows"`
	FailedRows    int        `json:"failedRows"`
	ErrorLog      []string   `json:"errorLog,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}
