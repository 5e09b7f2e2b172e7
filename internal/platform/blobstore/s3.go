package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const s3Prefix = "reports"

// S3Store keeps each blob at reports/<patient>/<id>/<file name>, so a prefix
// listing yields everything ListByPatient needs without extra requests.
type S3Store struct {
	bucket string
	client S3API
	now    func() time.Time
}

func NewS3Store(client S3API, bucket string) *S3Store {
	return &S3Store{bucket: bucket, client: client, now: time.Now}
}

func objectKey(patientID, id, fileName string) string {
	return path.Join(s3Prefix, patientID, id, fileName)
}

func blobPrefix(patientID, id string) string {
	return path.Join(s3Prefix, patientID, id) + "/"
}

func contentTypeFor(fileName string) string {
	if strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return "application/pdf"
	}
	return "application/octet-stream"
}

func (s *S3Store) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if err := validate(meta); err != nil {
		return nil, err
	}
	if strings.Contains(meta.FileName, "/") {
		return nil, fmt.Errorf("file name %q must not contain '/'", meta.FileName)
	}
	data, hash, err := readContent(content)
	if err != nil {
		return nil, err
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = hash
	meta.CreatedAt = s.now().UTC()
	if meta.ContentType == "" {
		meta.ContentType = contentTypeFor(meta.FileName)
	}

	key := objectKey(meta.PatientID, meta.ID, meta.FileName)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(meta.ContentType),
		Metadata: map[string]string{
			"sha256":     hash,
			"category":   meta.Category,
			"created-by": meta.CreatedBy,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: s3 put %s: %w", key, err)
	}

	out := meta
	return &out, nil
}

// segment reports whether v can stand as one key segment. Anything else
// would let path.Join climb out of the patient's prefix.
func segment(v string) bool {
	return v != "" && v != "." && v != ".." && !strings.Contains(v, "/")
}

// find resolves the single object stored under a blob's prefix.
func (s *S3Store) find(ctx context.Context, patientID, id string) (s3types.Object, error) {
	if !segment(patientID) || !segment(id) {
		return s3types.Object{}, ErrBlobNotFound
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(blobPrefix(patientID, id)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return s3types.Object{}, fmt.Errorf("blobstore: s3 list: %w", err)
	}
	if len(out.Contents) == 0 {
		return s3types.Object{}, ErrBlobNotFound
	}
	return out.Contents[0], nil
}

func metadataFromObject(obj s3types.Object) (*BlobMetadata, bool) {
	key := aws.ToString(obj.Key)
	parts := strings.Split(strings.TrimPrefix(key, s3Prefix+"/"), "/")
	if len(parts) != 3 {
		return nil, false
	}
	meta := &BlobMetadata{
		PatientID:   parts[0],
		ID:          parts[1],
		FileName:    parts[2],
		ContentType: contentTypeFor(parts[2]),
		Size:        aws.ToInt64(obj.Size),
		Category:    CategoryReport,
	}
	if obj.LastModified != nil {
		meta.CreatedAt = obj.LastModified.UTC()
	}
	return meta, true
}

func (s *S3Store) Download(ctx context.Context, patientID, id string) (io.ReadCloser, *BlobMetadata, error) {
	obj, err := s.find(ctx, patientID, id)
	if err != nil {
		return nil, nil, err
	}
	meta, ok := metadataFromObject(obj)
	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    obj.Key,
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("blobstore: s3 get: %w", err)
	}
	meta.Hash = out.Metadata["sha256"]
	meta.CreatedBy = out.Metadata["created-by"]
	if c := out.Metadata["category"]; c != "" {
		meta.Category = c
	}
	if out.ContentType != nil {
		meta.ContentType = *out.ContentType
	}
	return out.Body, meta, nil
}

func (s *S3Store) GetMetadata(ctx context.Context, patientID, id string) (*BlobMetadata, error) {
	obj, err := s.find(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	meta, ok := metadataFromObject(obj)
	if !ok {
		return nil, ErrBlobNotFound
	}
	return meta, nil
}

func (s *S3Store) Delete(ctx context.Context, patientID, id string) error {
	obj, err := s.find(ctx, patientID, id)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    obj.Key,
	}); err != nil {
		return fmt.Errorf("blobstore: s3 delete: %w", err)
	}
	return nil
}

func (s *S3Store) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*BlobMetadata, int, error) {
	var all []*BlobMetadata
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(path.Join(s3Prefix, patientID) + "/"),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("blobstore: s3 list: %w", err)
		}
		for _, obj := range out.Contents {
			if meta, ok := metadataFromObject(obj); ok {
				all = append(all, meta)
			}
		}
	}

	sortNewestFirst(all)
	return page(all, limit, offset), len(all), nil
}
