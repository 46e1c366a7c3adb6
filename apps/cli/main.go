package main

import (
	"context"
	"os"
	"time"

	exiftool "github.com/barasher/go-exiftool"
	"github.com/spf13/cobra"

	"github.com/acm19/takeout-sorter/internal/backup"
	"github.com/acm19/takeout-sorter/internal/logger"
	"github.com/acm19/takeout-sorter/internal/takeout"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "takeout-sorter",
	Short:   "Sort exported photos and videos into year-based folders",
	Long:    `Takeout-sorter routes exported media into year folders using sidecar JSON, embedded metadata, filename and directory patterns, and filesystem timestamps, with special-case routing for Snapchat exports and undated files.`,
	Version: version,
}

var sortCmd = &cobra.Command{
	Use:   "sort INPUT_DIR OUTPUT_DIR",
	Short: "Sort media files into year folders",
	Long:  `Walks INPUT_DIR, resolves a best-known year per file, and copies each file into OUTPUT_DIR/<year>, OUTPUT_DIR/Snapchat, or OUTPUT_DIR/Unknown. HEIC files are converted to JPEG when heif-convert is installed.`,
	Args:  cobra.ExactArgs(2),
	Run:   runSort,
}

var backupCmd = &cobra.Command{
	Use:   "backup SOURCE_DIR BUCKET",
	Short: "Backup sorted folders to S3",
	Long:  `Creates a tar.gz archive of each routed folder under SOURCE_DIR and uploads it to S3, skipping archives whose MD5 already matches the remote ETag.`,
	Args:  cobra.ExactArgs(2),
	Run:   runBackup,
}

var (
	testMode      bool
	noConvert     bool
	maxConcurrent int
)

func init() {
	sortCmd.Flags().BoolVarP(&testMode, "test", "t", false, "Process at most 100 files and trace each file's resolving signal")
	sortCmd.Flags().BoolVar(&noConvert, "no-convert", false, "Copy HEIC files as-is instead of converting to JPEG")

	backupCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "c", 5, "Maximum concurrent uploads")

	rootCmd.AddCommand(sortCmd, backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSort(cmd *cobra.Command, args []string) {
	inputRoot := args[0]
	outputRoot := args[1]

	if testMode {
		logger.SetVerbose(true)
	}

	fileStats := takeout.NewFileStats()
	if err := fileStats.ValidateDirectories(inputRoot, outputRoot); err != nil {
		logger.Error("Directory validation failed", "error", err)
		os.Exit(1)
	}

	opts := takeout.DefaultSortOptions()
	opts.TestMode = testMode
	opts.Convert = !noConvert

	// The exiftool binary is optional: without it the embedded
	// metadata reader degrades to its pure-Go fallback.
	var et *exiftool.Exiftool
	if e, err := exiftool.NewExiftool(); err != nil {
		logger.Warn("exiftool not available, embedded metadata limited to JPEG/TIFF", "error", err)
	} else {
		et = e
		defer et.Close()
	}

	validator := takeout.NewYearValidator(time.Now().Year())
	resolver := takeout.NewResolver(validator, et)
	sorter := takeout.NewSorter(resolver, takeout.NewImageConverter())

	logger.Info("Starting sort", "input", inputRoot, "output", outputRoot, "test_mode", testMode)
	stats, err := sorter.Sort(inputRoot, outputRoot, opts)
	if err != nil {
		logger.Error("Sort failed", "error", err)
		os.Exit(1)
	}

	outputCount, err := fileStats.GetFileCount(outputRoot)
	if err != nil {
		logger.Error("Error counting output files", "error", err)
		os.Exit(1)
	}

	logger.Info("Summary",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"converted", stats.Converted,
		"snapchat", stats.Snapchat,
		"unknown", stats.Unknown,
		"output_files", outputCount)
}

func runBackup(cmd *cobra.Command, args []string) {
	sourceDir := args[0]
	bucket := args[1]

	ctx := context.Background()
	s3Backup, err := backup.NewS3Backup(ctx)
	if err != nil {
		logger.Error("Failed to initialise S3 backup", "error", err)
		os.Exit(1)
	}

	if err := s3Backup.BackupFolders(ctx, sourceDir, bucket, maxConcurrent); err != nil {
		logger.Error("Backup failed", "error", err)
		os.Exit(1)
	}
}
