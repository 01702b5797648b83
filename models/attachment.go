package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttachmentStorage names the backend holding the object.
type AttachmentStorage string

const (
	StorageS3     AttachmentStorage = "s3"
	StorageGCS    AttachmentStorage = "gcs"
	StorageAzure  AttachmentStorage = "azure"
	StorageLocal  AttachmentStorage = "local"
	StorageGridFS AttachmentStorage = "gridfs"
)

func (s AttachmentStorage) Valid() bool {
	switch s {
	case StorageS3, StorageGCS, StorageAzure, StorageLocal, StorageGridFS:
		return true
	}
	return false
}

// Attachment is metadata about a stored file; the bytes live in a blob store.
type Attachment struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Storage     AttachmentStorage   `bson:"storage" json:"storage"`
	Key         string              `bson:"key" json:"key" binding:"required"`
	URL         string              `bson:"url,omitempty" json:"url,omitempty"`
	ContentType string              `bson:"contentType,omitempty" json:"contentType,omitempty"`
	Size        int64               `bson:"size,omitempty" json:"size,omitempty" binding:"min=0"`
	Width       int                 `bson:"width,omitempty" json:"width,omitempty" binding:"min=0"`
	Height      int                 `bson:"height,omitempty" json:"height,omitempty" binding:"min=0"`
	Caption     string              `bson:"caption,omitempty" json:"caption,omitempty"`
	UploadedBy  *primitive.ObjectID `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// NormalizeAttachments stamps client supplied metadata with a fresh id, the
// uploader and the server time. Storage defaults to local.
func NormalizeAttachments(in []Attachment, by primitive.ObjectID, now time.Time) []Attachment {
	out := make([]Attachment, 0, len(in))
	for _, a := range in {
		a.ID = primitive.NewObjectID()
		if a.Storage == "" {
			a.Storage = StorageLocal
		}
		uploader := by
		a.UploadedBy = &uploader
		a.CreatedAt = now
		out = append(out, a)
	}
	return out
}
