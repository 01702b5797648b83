package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxPhotoSize     = 10 << 20
	PhotoURLLifetime = 15 * time.Minute
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// PhotoService stores issue photos in the blob store and records their
// metadata on the issue. Only the reporter and staff may add photos.
type PhotoService struct {
	issues repositories.IssueRepository
	blobs  storage.BlobStore
	tx     repositories.TxRunner
	audit  auditor
	now    func() time.Time
}

func NewPhotoService(
	issues repositories.IssueRepository,
	audits repositories.AuditRepository,
	blobs storage.BlobStore,
	tx repositories.TxRunner,
	now func() time.Time,
) *PhotoService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &PhotoService{issues: issues, blobs: blobs, tx: tx, audit: auditor{repo: audits, now: now}, now: now}
}

func photoPrefix(issueID primitive.ObjectID) string {
	return "issues/" + issueID.Hex() + "/"
}

type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Caption     string
	Body        io.Reader
}

func (s *PhotoService) Add(ctx context.Context, issueID primitive.ObjectID, actor models.Actor, up PhotoUpload) (*models.Attachment, error) {
	if s.blobs == nil {
		return nil, apperr.New(apperr.CodeNotImplemented, "Photo storage is not configured", nil)
	}
	if !allowedPhotoTypes[up.ContentType] {
		return nil, apperr.Validation("Photo must be a JPEG, PNG, WebP or HEIC image")
	}
	if up.Size <= 0 || up.Size > MaxPhotoSize {
		return nil, apperr.Validation(fmt.Sprintf("Photo must be between 1 byte and %d MB", MaxPhotoSize>>20))
	}

	issue, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil || issue.IsDeleted {
		return nil, apperr.NotFound("Issue not found")
	}
	if !actor.Elevated() && issue.Reporter != actor.ID {
		return nil, apperr.Forbidden("Not allowed to add photos to this issue")
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	key := photoPrefix(issue.ID) + uuid.New().String() + ext
	url, err := s.blobs.Put(ctx, key, up.Body, up.ContentType)
	if err != nil {
		return nil, apperr.Internal("Failed to store photo", err)
	}

	now := s.now()
	uploader := actor.ID
	photo := models.Attachment{
		ID:          primitive.NewObjectID(),
		Storage:     models.StorageS3,
		Key:         key,
		URL:         url,
		ContentType: up.ContentType,
		Size:        up.Size,
		Caption:     strings.TrimSpace(up.Caption),
		UploadedBy:  &uploader,
		CreatedAt:   now,
	}
	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.issues.AddPhoto(ctx, issue.ID, photo, now); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionIssuePhotoAdded, models.EntityIssue, issue.ID, map[string]any{
			"photo": photo.ID,
			"key":   key,
		})
	})
	if err != nil {
		_ = s.blobs.Delete(ctx, key)
		return nil, err
	}
	return &photo, nil
}

// URL returns a short-lived download link for one of the issue's S3 photos.
// Only keys under the issue's own prefix are signed.
func (s *PhotoService) URL(ctx context.Context, issueID, photoID primitive.ObjectID) (string, error) {
	if s.blobs == nil {
		return "", apperr.New(apperr.CodeNotImplemented, "Photo storage is not configured", nil)
	}
	issue, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return "", err
	}
	if issue == nil || issue.IsDeleted {
		return "", apperr.NotFound("Issue not found")
	}
	for _, p := range issue.Photos {
		if p.ID != photoID {
			continue
		}
		if p.Storage != models.StorageS3 {
			return p.URL, nil
		}
		if !strings.HasPrefix(p.Key, photoPrefix(issue.ID)) {
			return "", apperr.NotFound("Photo not found")
		}
		return s.blobs.PresignGet(ctx, p.Key, PhotoURLLifetime)
	}
	return "", apperr.NotFound("Photo not found")
}
