package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	now     time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}, now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, _ := io.ReadAll(in.Body)
	f.now = f.now.Add(time.Minute)
	f.objects[aws.ToString(in.Key)] = fakeObject{
		data:        data,
		contentType: aws.ToString(in.ContentType),
		metadata:    in.Metadata,
		modified:    f.now,
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: aws.String(obj.contentType),
		Metadata:    obj.metadata,
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if in.MaxKeys != nil && int(*in.MaxKeys) < len(keys) {
		keys = keys[:*in.MaxKeys]
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		obj := f.objects[k]
		modified := obj.modified
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: &modified,
		})
	}
	return out, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "emr-reports")
	ctx := context.Background()

	uploaded, err := store.Upload(ctx, BlobMetadata{
		FileName:  "MediCare_Doe_Jane_2024-03-15.pdf",
		PatientID: "p1",
		Category:  CategoryReport,
		CreatedBy: "doctor-1",
	}, strings.NewReader("%PDF-1.3 body"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uploaded.ContentType != "application/pdf" {
		t.Errorf("expected content type inferred from name, got %q", uploaded.ContentType)
	}

	wantKey := "reports/p1/" + uploaded.ID + "/MediCare_Doe_Jane_2024-03-15.pdf"
	if _, ok := fake.objects[wantKey]; !ok {
		t.Fatalf("expected object at %s", wantKey)
	}

	rc, meta, err := store.Download(ctx, "p1", uploaded.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "%PDF-1.3 body" {
		t.Errorf("unexpected body %q", body)
	}
	if meta.Hash != uploaded.Hash || meta.CreatedBy != "doctor-1" {
		t.Errorf("metadata not restored: %+v", meta)
	}

	if _, _, err := store.Download(ctx, "p2", uploaded.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound for another patient, got %v", err)
	}
}

func TestS3Store_ListAndDelete(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "emr-reports")
	ctx := context.Background()

	a := seedBlob(t, store, "p1", "a.pdf", "a")
	b := seedBlob(t, store, "p1", "b.pdf", "bb")
	seedBlob(t, store, "p2", "c.pdf", "c")

	items, total, err := store.ListByPatient(ctx, "p1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || items[0].ID != b.ID || items[1].ID != a.ID {
		t.Fatalf("expected [b a], got total=%d %+v", total, items)
	}
	if items[0].Size != 2 || items[0].FileName != "b.pdf" {
		t.Errorf("unexpected listing entry %+v", items[0])
	}

	if err := store.Delete(ctx, "p1", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetMetadata(ctx, "p1", a.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
}

func TestS3Store_RejectsSlashInFileName(t *testing.T) {
	store := NewS3Store(newFakeS3(), "emr-reports")
	_, err := store.Upload(context.Background(), BlobMetadata{FileName: "../x.pdf", PatientID: "p1"}, strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for file name with '/'")
	}
}

func TestS3Store_DotSegmentsDoNotEscapePatientPrefix(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "emr-reports")
	ctx := context.Background()

	other, err := store.Upload(ctx, BlobMetadata{FileName: "a.pdf", PatientID: "p2"}, strings.NewReader("%PDF other"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	for _, id := range []string{"..", ".", "", "../p2"} {
		if _, _, err := store.Download(ctx, "p1", id); !errors.Is(err, ErrBlobNotFound) {
			t.Errorf("download %q: expected ErrBlobNotFound, got %v", id, err)
		}
		if err := store.Delete(ctx, "p1", id); !errors.Is(err, ErrBlobNotFound) {
			t.Errorf("delete %q: expected ErrBlobNotFound, got %v", id, err)
		}
	}
	if _, err := store.GetMetadata(ctx, "p2", other.ID); err != nil {
		t.Errorf("expected the other patient's report to survive, got %v", err)
	}
}
