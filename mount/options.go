package mount

import "github.com/google/uuid"

type MountOptions struct {
	ID    uuid.UUID // Fixed identifier instead of a random one.
	Label string    // Human readable name used in logs and mount listings.
}

type MountOption func(*MountOptions)

func newDefaultMountOptions() *MountOptions {
	return &MountOptions{
		ID: uuid.Nil,
	}
}

// WithID uses id instead of a random identifier. Uniqueness is not checked.
func WithID(id uuid.UUID) MountOption {
	return func(mo *MountOptions) {
		mo.ID = id
	}
}

// WithLabel names the mount in logs and mount listings.
func WithLabel(label string) MountOption {
	return func(mo *MountOptions) {
		mo.Label = label
	}
}
