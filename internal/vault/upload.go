package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/cryptox"
)

// BatchResult tallies a multi-item pipeline run. Batch operations never
// collapse to a single pass/fail; the caller always gets the full mix.
type BatchResult struct {
	OK    int
	Fail  int
	Total int
}

func (r BatchResult) String() string {
	return fmt.Sprintf("ok: %d, fail: %d, total: %d", r.OK, r.Fail, r.Total)
}

// UploadFile is one plaintext file handed to the upload pipeline.
type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// UploadOptions is the user-supplied classification shared by the batch.
type UploadOptions struct {
	Title    string
	Category string
	Tags     []string
	Album    string
	Date     string
}

// Upload encrypts and stores each file, appends its record, and writes the
// index once after the whole batch. A failed file is skipped, not fatal;
// an index save failure is surfaced alongside the tally because the stored
// blobs would otherwise be unrecorded. The caller owns password; the
// derived key is wiped before returning.
func (s *Session) Upload(ctx context.Context, files []UploadFile, password []byte, opts UploadOptions) (BatchResult, error) {
	res := BatchResult{Total: len(files)}

	if err := checkPassword(password); err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, nil
	}

	if err := s.ensureIndex(ctx); err != nil {
		res.Fail = res.Total
		return res, fmt.Errorf("resolving vault: %w", err)
	}

	containerID, err := s.resolver.EnsureContainer(ctx)
	if err != nil {
		res.Fail = res.Total
		return res, fmt.Errorf("resolving vault: %w", err)
	}

	saltB64, salt, err := s.deviceSalt(ctx)
	if err != nil {
		res.Fail = res.Total
		return res, err
	}

	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	for _, f := range files {
		if err := s.uploadOne(ctx, f, key, saltB64, containerID, opts); err != nil {
			s.log.Error(ctx, "upload failed", "file", f.Name, "error", err)
			res.Fail++
			continue
		}
		res.OK++
	}

	if err := s.index.Save(ctx); err != nil {
		return res, err
	}

	s.recordActivity("upload", fmt.Sprintf("%d file(s)", res.OK))
	return res, nil
}

func (s *Session) uploadOne(ctx context.Context, f UploadFile, key []byte, saltB64, containerID string, opts UploadOptions) error {
	ciphertext, nonce, err := cryptox.Encrypt(f.Data, key)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}

	blobID, err := s.store.Create(ctx, f.Name+EncSuffix, containerID, "application/octet-stream")
	if err != nil {
		return fmt.Errorf("creating blob: %w", err)
	}

	if err := s.store.WriteContent(ctx, blobID, ciphertext, "application/octet-stream"); err != nil {
		// the empty blob stays behind; harmless, and the next upload of the
		// same file gets a fresh object anyway
		return fmt.Errorf("writing blob: %w", err)
	}

	now := s.now()
	createdAt := now.UTC().Format(time.RFC3339)

	title := opts.Title
	if title == "" {
		title = f.Name
	}

	item := &Item{
		ID:           blobID,
		Title:        title,
		Category:     NormalizeCategory(opts.Category),
		Tags:         opts.Tags,
		Album:        opts.Album,
		Date:         opts.Date,
		OriginalName: f.Name,
		Size:         int64(len(f.Data)),
		MimeType:     f.MimeType,
		IV:           base64.StdEncoding.EncodeToString(nonce),
		Salt:         saltB64,
		CreatedAt:    createdAt,
	}
	item.AppendLog("upload", now)

	s.index.Append(item)
	return nil
}
