package archive

import (
	"archive/tar"
	"bytes"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"
)

// ArchiveHandler serves any archive format that archiver can walk, chosen
// by the file extension (tar, tar.gz, tar.bz2, tar.xz, tar.zst, zip, ...).
// Regular file contents are buffered into memory when the handler is built,
// since most of these formats do not allow random access.
type ArchiveHandler struct {
	*index[[]byte]
	path string
}

func NewArchiveHandler(path string) (*ArchiveHandler, error) {
	idx := newIndex("archive", archiveFileSize, archiveFileOpen)

	err := archiver.Walk(path, func(f archiver.File) error {
		name := archiveEntryName(f)
		if f.IsDir() {
			idx.add(name, nil, true)
			return nil
		}
		if !f.Mode().IsRegular() {
			return nil
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		idx.add(name, content, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ArchiveHandler{
		index: idx,
		path:  path,
	}, nil
}

// archiveEntryName returns the full entry path. The embedded FileInfo only
// carries the base name, so the format specific header is consulted first.
func archiveEntryName(f archiver.File) string {
	switch header := f.Header.(type) {
	case *tar.Header:
		return header.Name
	case zip.FileHeader:
		return header.Name
	default:
		return f.Name()
	}
}

func archiveFileSize(content []byte) uint64 {
	return uint64(len(content))
}

func archiveFileOpen(content []byte) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Returns the identifier name defined for this handler
func (*ArchiveHandler) Name() string {
	return "archive"
}

func (ah *ArchiveHandler) Path() string {
	return ah.path
}
