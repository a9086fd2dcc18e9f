package models

import "time"

// StoredFile describes an uploaded document kept in object storage.
// Key is the object key; it starts with the owner's id.
type StoredFile struct {
	Key          string    `json:"filename"`
	Owner        string    `json:"-"`
	OriginalName string    `json:"originalname,omitempty"`
	ContentType  string    `json:"contentType,omitempty"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// OwnerID implements auth.Owned.
func (f *StoredFile) OwnerID() string { return f.Owner }
