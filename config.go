package cellfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/cellfs/config"
	"github.com/mwantia/cellfs/mount"
)

// NewCellFileSystemFromConfig creates a filesystem configured by cfg and
// mounts every configured handler in order. Options given in opts are
// applied after the logger settings of cfg. If any mount fails, handlers
// created so far are closed again.
func NewCellFileSystemFromConfig(ctx context.Context, cfg *config.Config, opts ...CellFileSystemOption) (*CellFileSystem, error) {
	options := []CellFileSystemOption{
		WithLogLevelName(cfg.Log.Level),
		WithLogFile(cfg.Log.File),
	}
	if cfg.Log.NoTerminal {
		options = append(options, WithoutTerminalLog())
	}
	if cfg.Log.JSON {
		options = append(options, WithJSONLog())
	}

	cfs, err := NewCellFileSystem(append(options, opts...)...)
	if err != nil {
		return nil, err
	}

	for i, mc := range cfg.Mounts {
		handler, err := NewHandlerFromAddress(ctx, mc.Address)
		if err != nil {
			err = fmt.Errorf("failed to create handler for mounts[%d] at '%s': %w", i, mc.Path, err)
			return nil, errors.Join(err, cfs.Shutdown(ctx))
		}

		var mountOpts []mount.MountOption
		if mc.Label != "" {
			mountOpts = append(mountOpts, mount.WithLabel(mc.Label))
		}

		cfs.Mount(mc.Path, handler, mountOpts...)
	}

	return cfs, nil
}
