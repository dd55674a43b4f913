package data

import "io/fs"

// Permissions reports the access a handler grants for an object.
// They are informational only and never enforced by the filesystem.
type Permissions struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

var (
	PermissionsReadOnly  = Permissions{Read: true}
	PermissionsReadWrite = Permissions{Read: true, Write: true}
)

// PermissionsFromMode derives permissions from the owner, group and other
// bits of a unix file mode. Any read bit grants read, any write bit grants write.
func PermissionsFromMode(mode fs.FileMode) Permissions {
	perm := mode.Perm()
	return Permissions{
		Read:  perm&0o444 != 0,
		Write: perm&0o222 != 0,
	}
}

// ReadOnly returns true if the object can be read but not written.
func (p Permissions) ReadOnly() bool {
	return p.Read && !p.Write
}

// WriteOnly returns true if the object can be written but not read.
func (p Permissions) WriteOnly() bool {
	return p.Write && !p.Read
}

// Stat describes an object as reported by a handler.
type Stat struct {
	Type        FileType    `json:"type"`
	Permissions Permissions `json:"permissions"`

	// Size in bytes (0 for directories)
	Size uint64 `json:"size"`
}

// NewFileStat creates a stat for a regular file of the given size.
func NewFileStat(size uint64, perm Permissions) *Stat {
	return &Stat{
		Type:        FileTypeFile,
		Permissions: perm,
		Size:        size,
	}
}

// NewDirectoryStat creates a stat for a directory.
func NewDirectoryStat(perm Permissions) *Stat {
	return &Stat{
		Type:        FileTypeDirectory,
		Permissions: perm,
	}
}

func (s *Stat) IsDir() bool {
	return s.Type == FileTypeDirectory
}

func (s *Stat) IsFile() bool {
	return s.Type == FileTypeFile
}
