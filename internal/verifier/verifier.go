// Package verifier checks finished archives against the files they were built from.
package verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/types"
)

// VerificationMethod defines how to verify an archive.
type VerificationMethod string

const (
	// MethodCount checks that every expected entry exists and nothing else does (fast)
	MethodCount VerificationMethod = "count"
	// MethodSHA256 additionally compares each entry's digest with its source file
	MethodSHA256 VerificationMethod = "sha256"
	// MethodSkip skips verification entirely
	MethodSkip VerificationMethod = "skip"
)

// VerifyResult holds the verification result for a single entry.
type VerifyResult struct {
	Entry        string
	Source       string
	SourceHash   string
	ArchiveHash  string
	Match        bool
	ErrorMessage string
}

// VerifyStats contains overall verification statistics.
type VerifyStats struct {
	EntriesExpected int
	EntriesFound    int
	EntriesVerified int
	EntriesPassed   int
	EntriesFailed   int
	TotalBytes      int64
	Method          VerificationMethod
}

// Verifier checks archives written by the exporter.
type Verifier struct {
	method VerificationMethod
	logger *logger.Logger
}

// NewVerifier creates a verifier. An empty method defaults to MethodCount.
func NewVerifier(method VerificationMethod, log *logger.Logger) (*Verifier, error) {
	if method == "" {
		method = MethodCount
	}
	switch method {
	case MethodCount, MethodSHA256, MethodSkip:
	default:
		return nil, fmt.Errorf("unsupported verification method: %s", method)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{method: method, logger: log}, nil
}

// Verify checks archivePath against the expected entries.
func (v *Verifier) Verify(archivePath string, expected []types.ArchiveEntry) (*VerifyStats, error) {
	if v.method == MethodSkip {
		v.logger.Debugw("Verification skipped", "archive", archivePath)
		return &VerifyStats{Method: MethodSkip}, nil
	}

	stats := &VerifyStats{
		Method:          v.method,
		EntriesExpected: len(expected),
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return stats, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}
	stats.EntriesFound = len(files)

	if len(r.File) != len(expected) {
		return stats, fmt.Errorf("archive %s: entry count mismatch: expected=%d, archive=%d",
			archivePath, len(expected), len(r.File))
	}

	for _, entry := range expected {
		f, ok := files[entry.Name]
		if !ok {
			stats.EntriesFailed++
			return stats, fmt.Errorf("archive %s: missing entry %s", archivePath, entry.Name)
		}
		stats.TotalBytes += int64(f.UncompressedSize64)

		if v.method == MethodCount {
			continue
		}

		result, err := v.verifyBySHA256(f, entry)
		if err != nil {
			return stats, fmt.Errorf("archive %s: entry %s: %w", archivePath, entry.Name, err)
		}
		stats.EntriesVerified++
		if !result.Match {
			stats.EntriesFailed++
			v.logger.Errorw("Archive entry does not match its source",
				"archive", archivePath,
				"entry", entry.Name,
				"source", entry.Source,
				"reason", result.ErrorMessage,
			)
			return stats, fmt.Errorf("archive %s: entry %s: %s", archivePath, entry.Name, result.ErrorMessage)
		}
		stats.EntriesPassed++
	}

	v.logger.Debugw("Archive verified",
		"archive", archivePath,
		"method", v.method,
		"entries", stats.EntriesFound,
		"bytes", stats.TotalBytes,
	)
	return stats, nil
}

// verifyBySHA256 compares the digest of an archive entry with its source file.
func (v *Verifier) verifyBySHA256(f *zip.File, entry types.ArchiveEntry) (*VerifyResult, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry: %w", err)
	}
	archiveHash, err := hashReader(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to hash entry: %w", err)
	}

	sourceHash, err := HashFile(entry.Source)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Entry:       entry.Name,
		Source:      entry.Source,
		SourceHash:  sourceHash,
		ArchiveHash: archiveHash,
		Match:       sourceHash == archiveHash,
	}
	if !result.Match {
		result.ErrorMessage = fmt.Sprintf("hash mismatch: source=%s, archive=%s", sourceHash[:16], archiveHash[:16])
	}
	return result, nil
}

// HashFile returns the hex SHA256 digest of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// GetMethod returns the configured verification method.
func (v *Verifier) GetMethod() VerificationMethod {
	return v.method
}
