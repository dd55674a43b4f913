package archive

import (
	"io"

	"github.com/klauspost/compress/zip"
)

// ZipHandler serves the entries of a zip archive. Entry contents are
// decompressed on demand when opened.
type ZipHandler struct {
	*index[*zip.File]
	closer io.Closer
}

// NewZipHandler opens the zip archive at path and indexes its entries.
func NewZipHandler(path string) (*ZipHandler, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}

	zh := newZipHandler(&rc.Reader)
	zh.closer = rc
	return zh, nil
}

// NewZipHandlerFromReader indexes a zip archive of the given size read from r.
func NewZipHandlerFromReader(r io.ReaderAt, size int64) (*ZipHandler, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	return newZipHandler(zr), nil
}

func newZipHandler(zr *zip.Reader) *ZipHandler {
	idx := newIndex("zip", zipFileSize, zipFileOpen)
	for _, file := range zr.File {
		idx.add(file.Name, file, file.FileInfo().IsDir())
	}

	return &ZipHandler{
		index: idx,
	}
}

func zipFileSize(file *zip.File) uint64 {
	return file.UncompressedSize64
}

func zipFileOpen(file *zip.File) (io.ReadCloser, error) {
	return file.Open()
}

// Returns the identifier name defined for this handler
func (*ZipHandler) Name() string {
	return "zip"
}

// Close releases the archive file if the handler opened it.
func (zh *ZipHandler) Close() error {
	if zh.closer == nil {
		return nil
	}

	err := zh.closer.Close()
	zh.closer = nil
	return err
}
