// Package archive copies remote log files into S3-compatible storage.
// It lists each registered host's logs, fetches their content, and uploads
// new or modified files, using a manifest to skip unchanged ones.
package archive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/massimosiani/prophet/internal/client"
	"github.com/massimosiani/prophet/internal/types"
)

// Archiver orchestrates log archival to S3.
type Archiver struct {
	cfg    *types.Config
	client *s3.Client
	dryRun bool
}

// New creates an Archiver. A nil client is allowed for dry runs and tests.
func New(cfg *types.Config, s3Client *s3.Client, dryRun bool) *Archiver {
	return &Archiver{
		cfg:    cfg,
		client: s3Client,
		dryRun: dryRun,
	}
}

// Result contains summary statistics from an archive run.
type Result struct {
	Archived      int   // Number of files uploaded
	Skipped       int   // Number of files skipped as unchanged
	Failed        int   // Number of files that could not be fetched or uploaded
	ArchivedBytes int64 // Total bytes uploaded
}

// Archive lists and uploads the logs of every given host client. Failures on
// one host or file are reported and do not abort the run.
func (a *Archiver) Archive(ctx context.Context, clients []*client.Remote) (*Result, error) {
	result := &Result{}

	manifestKey := a.manifestKey()

	m := NewManifest()
	if a.client != nil {
		loaded, err := LoadManifest(ctx, a.client, a.cfg.Archive.Bucket, manifestKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load manifest (treating as first run): %v\n", err)
		} else {
			m = loaded
		}
	}

	var uploader *manager.Uploader
	if a.client != nil && !a.dryRun {
		uploader = manager.NewUploader(a.client, func(mu *manager.Uploader) {
			mu.Concurrency = 5            // 5 concurrent parts per file
			mu.PartSize = 5 * 1024 * 1024 // 5MB parts
		})
	}

	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("archive cancelled: %w", err)
		}

		files, err := c.Logs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to list logs on %s: %v\n", c.Hostname(), err)
			result.Failed++
			continue
		}

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("archive cancelled: %w", err)
			}

			key := ComputeKey(a.cfg.Archive.Prefix, f.Hostname, f.Filename)

			if entry, ok := m.Files[key]; ok {
				localMtime := f.Modified.Truncate(time.Second)
				remoteMtime := entry.Mtime.Truncate(time.Second)
				if localMtime.Equal(remoteMtime) {
					fmt.Printf("Skipping %s (unchanged)\n", key)
					result.Skipped++
					continue
				}
			}

			if a.dryRun {
				fmt.Printf("Would archive %s (%d bytes)\n", key, f.SizeBytes)
				result.Archived++
				result.ArchivedBytes += f.SizeBytes
				continue
			}

			content, err := c.Get(ctx, f.RemotePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to fetch %s from %s: %v\n", f.Filename, f.Hostname, err)
				result.Failed++
				continue
			}

			fmt.Printf("Archiving %s (%d bytes)\n", key, len(content))

			_, err = uploader.Upload(ctx, &s3.PutObjectInput{
				Bucket: aws.String(a.cfg.Archive.Bucket),
				Key:    aws.String(key),
				Body:   strings.NewReader(content),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to upload %s: %v\n", key, err)
				result.Failed++
				continue
			}

			m.Files[key] = FileEntry{
				Mtime: f.Modified,
				Size:  f.SizeBytes,
			}
			result.Archived++
			result.ArchivedBytes += int64(len(content))
		}
	}

	if result.Archived > 0 && a.client != nil && !a.dryRun {
		if err := SaveManifest(ctx, a.client, a.cfg.Archive.Bucket, manifestKey, m); err != nil {
			// Uploads already succeeded; losing the manifest only costs re-uploads.
			fmt.Fprintf(os.Stderr, "Warning: failed to save manifest: %v\n", err)
		}
	}

	fmt.Printf("\nArchive complete: %d archived, %d skipped, %d failed\n",
		result.Archived, result.Skipped, result.Failed)

	return result, nil
}

// manifestKey returns the S3 key for the manifest file.
func (a *Archiver) manifestKey() string {
	prefix := a.cfg.Archive.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + ".manifest.json"
}

// ComputeKey generates the S3 key for a remote log file.
// Format: <prefix>/<hostname>/<filename>.
func ComputeKey(prefix, hostname, filename string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + hostname + "/" + filename
}
