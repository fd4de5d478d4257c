// Package storage defines the attachment file-store abstraction.
package storage

import "time"

// AttachmentMeta describes one stored attachment file.
type AttachmentMeta struct {
	Name      string
	Size      int64
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for attachment file operations. Names are plain
// filenames; implementations must reject anything that escapes the store root.
type Provider interface {
	// List returns metadata for every stored attachment.
	List() ([]AttachmentMeta, error)
	// Read returns the raw bytes of the named attachment.
	Read(name string) ([]byte, error)
	// Write atomically stores content under name.
	Write(name string, content []byte) error
	// Delete removes the named attachment.
	Delete(name string) error
	// Path resolves name to an absolute path for serving, validating it
	// stays inside the store root.
	Path(name string) (string, error)
}
