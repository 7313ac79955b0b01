package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client defines the minimal S3 client interface needed for manifest operations.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Manifest tracks archived log metadata so unchanged remote files can be
// skipped on subsequent runs. It records remote modification times, not
// archived content size.
type Manifest struct {
	Version int                  `json:"version"`
	Files   map[string]FileEntry `json:"files"`
}

// FileEntry records metadata about one archived log file.
type FileEntry struct {
	Mtime time.Time `json:"mtime"` // Remote modification time (UTC)
	Size  int64     `json:"size"`  // Remote size as reported by the listing
}

// NewManifest creates an empty manifest with version 1.
func NewManifest() *Manifest {
	return &Manifest{
		Version: 1,
		Files:   make(map[string]FileEntry),
	}
}

// CountByHost groups manifest entries by hostname and returns counts.
// Host is extracted from the key: prefix/host/file.log → host.
func (m *Manifest) CountByHost(prefix string) map[string]int {
	counts := make(map[string]int)
	for key := range m.Files {
		rel := strings.TrimPrefix(key, prefix)
		rel = strings.TrimPrefix(rel, "/")
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) > 0 && parts[0] != "" {
			counts[parts[0]]++
		}
	}
	return counts
}

// LoadManifest downloads and parses the manifest from S3.
// Returns an empty manifest if the file doesn't exist (first run).
// Returns an error for other failures (network, permissions, corrupt JSON).
func LoadManifest(ctx context.Context, client S3Client, bucket, key string) (*Manifest, error) {
	output, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		var nsk *s3types.NoSuchKey
		var nf *s3types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("downloading manifest: %w", err)
	}
	defer func() { _ = output.Body.Close() }()

	var m Manifest
	if err := json.NewDecoder(output.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest JSON: %w", err)
	}

	if m.Version != 1 {
		return nil, fmt.Errorf("unsupported manifest version: %d", m.Version)
	}

	if m.Files == nil {
		m.Files = make(map[string]FileEntry)
	}

	return &m, nil
}

// SaveManifest uploads the manifest to S3 as JSON.
func SaveManifest(ctx context.Context, client S3Client, bucket, key string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})

	if err != nil {
		return fmt.Errorf("uploading manifest: %w", err)
	}

	return nil
}
