package types

// ArchiveEntry maps one file inside an archive to the file it was copied from.
type ArchiveEntry struct {
	Name   string // path inside the archive, slash separated
	Source string // path on disk
}
