package data

// FileType identifies the kind of object a stat describes.
type FileType int

const (
	FileTypeFile      FileType = iota // Regular file
	FileTypeDirectory                 // Directory
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeFile:
		return "file"
	case FileTypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}
