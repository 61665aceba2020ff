package models

import "time"

// BatchFile is one file captured by value at submit time.
type BatchFile struct {
	ID      string `json:"id"` // correlation id
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Content []byte `json:"-"`
}

// UploadBatch is the ordered set of files sent in one request.
// It must not be modified after it has been submitted.
type UploadBatch struct {
	ID          string      `json:"id"`
	Files       []BatchFile `json:"files"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// Len returns the number of files in the batch.
func (b *UploadBatch) Len() int {
	return len(b.Files)
}

// TotalSize returns the sum of all file sizes in bytes.
func (b *UploadBatch) TotalSize() int64 {
	var total int64
	for _, f := range b.Files {
		total += f.Size
	}
	return total
}
