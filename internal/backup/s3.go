// Package backup uploads the sorted output tree to S3, one tar.gz
// archive per routed folder (year, Snapchat, Unknown), skipping
// archives whose content already exists remotely.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/acm19/takeout-sorter/internal/logger"
)

// s3API is the subset of the S3 client the backup needs. Narrowed so
// tests can substitute a mock.
type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backup defines the interface for backing up a sorted tree to S3.
type S3Backup interface {
	// BackupFolders archives and uploads every routed folder under sourceDir.
	BackupFolders(ctx context.Context, sourceDir, bucket string, maxConcurrent int) error
}

// s3Backup implements the S3Backup interface.
type s3Backup struct {
	client s3API
}

// NewS3Backup creates an S3Backup using the default AWS config chain.
func NewS3Backup(ctx context.Context) (S3Backup, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &s3Backup{client: s3.NewFromConfig(cfg)}, nil
}

// BackupFolders archives each routed folder and uploads it with a
// bounded worker pool.
func (b *s3Backup) BackupFolders(ctx context.Context, sourceDir, bucket string, maxConcurrent int) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}
	if len(folders) == 0 {
		logger.Info("No folders found to backup")
		return nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	logger.Info("Starting S3 backup", "folders", len(folders), "bucket", bucket, "concurrency", maxConcurrent)

	jobs := make(chan string, len(folders))
	results := make(chan error, len(folders))
	var wg sync.WaitGroup

	for i := 0; i < maxConcurrent; i++ {
		wg.Add(1)
		go b.backupWorker(ctx, i, sourceDir, bucket, jobs, results, &wg)
	}

	for _, folder := range folders {
		jobs <- folder
	}
	close(jobs)

	wg.Wait()
	close(results)

	failed := 0
	succeeded := 0
	for err := range results {
		if err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	if failed > 0 {
		logger.Error("Backup completed with errors", "successful", succeeded, "failed", failed)
		return fmt.Errorf("backup failed for %d folders", failed)
	}

	logger.Info("Backup completed successfully", "folders_backed_up", succeeded)
	return nil
}

// backupWorker processes backup jobs from the jobs channel.
func (b *s3Backup) backupWorker(ctx context.Context, workerID int, sourceDir, bucket string, jobs <-chan string, results chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()
	for folder := range jobs {
		logger.Debug("Worker processing folder", "worker", workerID, "folder", folder)
		if err := b.backupFolder(ctx, sourceDir, folder, bucket); err != nil {
			logger.Error("Failed to backup folder", "folder", folder, "error", err)
			results <- fmt.Errorf("folder %s: %w", folder, err)
		} else {
			results <- nil
		}
	}
}

// backupFolder archives one routed folder and uploads it unless an
// identical archive already exists remotely.
func (b *s3Backup) backupFolder(ctx context.Context, sourceDir, folder, bucket string) error {
	folderPath := filepath.Join(sourceDir, folder)

	fileCount, err := countFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to count files: %w", err)
	}

	s3Key := fmt.Sprintf("%s (%d files).tar.gz", folder, fileCount)

	tmpDir, err := os.MkdirTemp("", "takeout-backup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Error("Failed to remove temporary directory", "path", tmpDir, "error", err)
		}
	}()

	archivePath := filepath.Join(tmpDir, s3Key)
	logger.Info("Creating archive", "folder", folder, "files", fileCount)
	if err := createTarGz(folderPath, archivePath); err != nil {
		return fmt.Errorf("failed to create tar.gz: %w", err)
	}

	localHash, err := calculateMD5(archivePath)
	if err != nil {
		return fmt.Errorf("failed to calculate MD5: %w", err)
	}

	headOutput, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(s3Key),
	})
	if err == nil {
		remoteETag := extractETag(headOutput.ETag)
		if remoteETag == localHash {
			logger.Info("Archive already in S3 with matching hash, skipping", "folder", folder, "key", s3Key)
			return nil
		}
		return fmt.Errorf("hash mismatch for %q: S3 object exists with different content (local: %s, remote: %s), manual intervention required", s3Key, localHash, remoteETag)
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("failed to check S3 object existence: %w", err)
	}

	logger.Info("Uploading to S3", "folder", folder, "bucket", bucket, "key", s3Key, "hash", localHash)
	if err := b.uploadToS3(ctx, archivePath, bucket, s3Key); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.Info("Successfully backed up folder", "folder", folder, "key", s3Key)
	return nil
}

// uploadToS3 uploads an archive to S3.
func (b *s3Backup) uploadToS3(ctx context.Context, filePath, bucket, key string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	return err
}

// countFiles counts regular files under dir recursively.
func countFiles(dir string) (int, error) {
	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			count++
		}
		return nil
	})
	return count, err
}

// calculateMD5 calculates the MD5 hash of a file.
func calculateMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// extractETag strips the surrounding quotes S3 puts on ETags.
func extractETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}

// isNotFoundError checks if the error is an S3 NotFound error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "StatusCode: 404")
}

// createTarGz creates a tar.gz archive of a directory.
func createTarGz(sourceDir, targetFile string) error {
	file, err := os.Create(targetFile)
	if err != nil {
		return err
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tarWriter, f)
		return err
	})
}
