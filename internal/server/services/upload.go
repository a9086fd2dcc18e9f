package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/blobstore"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
)

// DownloadURLTTL is how long a presigned download link stays valid.
const DownloadURLTTL = 15 * time.Minute

// allowedTypes maps a lower-case extension to the MIME types accepted for it.
var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".txt":  {"text/plain"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

type UploadService struct {
	store    blobstore.Store
	maxBytes int64
	logger   logging.Logger
	now      func() time.Time
}

func NewUploadService(store blobstore.Store, maxBytes int64, logger logging.Logger) *UploadService {
	return &UploadService{
		store:    store,
		maxBytes: maxBytes,
		logger:   logger.With("module", "uploads"),
		now:      time.Now,
	}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 { return s.maxBytes }

// Upload validates and stores one file under a fresh key owned by ownerID.
func (s *UploadService) Upload(ctx context.Context, ownerID, filename, contentType string, size int64, body io.Reader) (*models.StoredFile, error) {
	if size <= 0 {
		return nil, common.NewValidationError("file", "no file uploaded")
	}
	if size > s.maxBytes {
		return nil, common.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}

	name := baseName(filename)
	ext := strings.ToLower(path.Ext(name))
	ct, err := checkType(ext, contentType)
	if err != nil {
		return nil, err
	}

	suffix, err := common.RandomDigits(9)
	if err != nil {
		return nil, err
	}
	now := s.now()
	key := fmt.Sprintf("%s-%d-%s%s", ownerID, now.UnixMilli(), suffix, ext)

	meta := map[string]string{
		blobstore.MetaOwnerID:      ownerID,
		blobstore.MetaOriginalName: name,
	}
	if err := s.store.Put(ctx, key, body, size, ct, meta); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "file uploaded", "user_id", ownerID, "key", key, "size", size)
	return &models.StoredFile{
		Key:          key,
		Owner:        ownerID,
		OriginalName: name,
		ContentType:  ct,
		Size:         size,
		UploadedAt:   now,
	}, nil
}

// List returns the owner's files, newest first.
func (s *UploadService) List(ctx context.Context, ownerID string) ([]*models.StoredFile, error) {
	objs, err := s.store.List(ctx, ownerID+"-")
	if err != nil {
		return nil, err
	}

	files := make([]*models.StoredFile, 0, len(objs))
	for _, o := range objs {
		files = append(files, &models.StoredFile{
			Key:        o.Key,
			Owner:      ownerID,
			Size:       o.Size,
			UploadedAt: o.LastModified,
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	return files, nil
}

func (s *UploadService) Delete(ctx context.Context, ownerID, key string) error {
	if _, err := s.owned(ctx, ownerID, key); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info(ctx, "file deleted", "user_id", ownerID, "key", key)
	return nil
}

// DownloadURL returns a presigned GET link for one of the owner's files.
func (s *UploadService) DownloadURL(ctx context.Context, ownerID, key string) (string, error) {
	if _, err := s.owned(ctx, ownerID, key); err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, key, DownloadURLTTL)
}

func (s *UploadService) owned(ctx context.Context, ownerID, key string) (*models.StoredFile, error) {
	var f *models.StoredFile

	if key != "" && !strings.ContainsAny(key, `/\`) {
		obj, err := s.store.Stat(ctx, key)
		switch {
		case err == nil:
			f = &models.StoredFile{
				Key:          obj.Key,
				Owner:        obj.Metadata[blobstore.MetaOwnerID],
				OriginalName: obj.Metadata[blobstore.MetaOriginalName],
				ContentType:  obj.ContentType,
				Size:         obj.Size,
				UploadedAt:   obj.LastModified,
			}
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}

	if err := auth.AssertOwner(f, ownerID); err != nil {
		if errors.Is(err, common.ErrForbidden) {
			s.logger.Warn(ctx, "ownership check failed", "user_id", ownerID, "key", key)
		}
		return nil, err
	}
	return f, nil
}

// baseName strips any directory part a client may send, for either separator.
func baseName(filename string) string {
	return path.Base(strings.ReplaceAll(filename, `\`, "/"))
}

// checkType validates the extension and returns the canonical content type.
// A missing or generic client type is inferred from the extension.
func checkType(ext, contentType string) (string, error) {
	allowed, ok := allowedTypes[ext]
	if !ok {
		return "", common.NewValidationError("file", "only pdf, doc, docx, txt, jpg, jpeg and png files are allowed")
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "application/octet-stream" {
		return allowed[0], nil
	}
	for _, a := range allowed {
		if strings.EqualFold(mt, a) {
			return a, nil
		}
	}
	return "", common.NewValidationError("file", fmt.Sprintf("content type %q does not match %s", mt, ext))
}
