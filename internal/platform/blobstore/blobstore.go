// Package blobstore archives generated documents per patient. The in-memory
// store serves development and tests; S3Store is used when a bucket is
// configured.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
	ErrMissingPatient  = errors.New("patient id is required")
)

// MaxFileSize caps a single archived document (25 MB).
const MaxFileSize = 25 * 1024 * 1024

const CategoryReport = "report"

type BlobMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientID   string    `json:"patient_id"`
	Category    string    `json:"category"`
	Hash        string    `json:"hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// BlobStore is keyed by patient, so every lookup names the patient as well
// as the blob.
type BlobStore interface {
	Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Download(ctx context.Context, patientID, id string) (io.ReadCloser, *BlobMetadata, error)
	GetMetadata(ctx context.Context, patientID, id string) (*BlobMetadata, error)
	Delete(ctx context.Context, patientID, id string) error
	// ListByPatient returns newest first.
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*BlobMetadata, int, error)
}

// readContent enforces MaxFileSize and returns the bytes with their SHA-256.
func readContent(content io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, "", ErrFileTooLarge
	}
	return data, fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

func validate(meta BlobMetadata) error {
	if meta.FileName == "" {
		return ErrMissingFileName
	}
	if meta.PatientID == "" {
		return ErrMissingPatient
	}
	return nil
}

func sortNewestFirst(items []*BlobMetadata) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func page(items []*BlobMetadata, limit, offset int) []*BlobMetadata {
	if limit <= 0 {
		limit = 20
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe BlobStore for tests and development.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
	now   func() time.Time
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs: make(map[string]*storedBlob),
		now:   time.Now,
	}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if err := validate(meta); err != nil {
		return nil, err
	}
	data, hash, err := readContent(content)
	if err != nil {
		return nil, err
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = hash
	meta.CreatedAt = s.now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryBlobStore) lookup(patientID, id string) (*storedBlob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[id]
	if !ok || blob.metadata.PatientID != patientID {
		return nil, ErrBlobNotFound
	}
	return blob, nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, patientID, id string) (io.ReadCloser, *BlobMetadata, error) {
	blob, err := s.lookup(patientID, id)
	if err != nil {
		return nil, nil, err
	}
	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryBlobStore) GetMetadata(_ context.Context, patientID, id string) (*BlobMetadata, error) {
	blob, err := s.lookup(patientID, id)
	if err != nil {
		return nil, err
	}
	meta := blob.metadata
	return &meta, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, patientID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[id]
	if !ok || blob.metadata.PatientID != patientID {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *InMemoryBlobStore) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*BlobMetadata, int, error) {
	s.mu.RLock()
	var matched []*BlobMetadata
	for _, b := range s.blobs {
		if b.metadata.PatientID != patientID {
			continue
		}
		m := b.metadata
		matched = append(matched, &m)
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	return page(matched, limit, offset), len(matched), nil
}
