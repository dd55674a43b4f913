package cellfs

import "github.com/mwantia/cellfs/log"

type CellFileSystemOptions struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
	JSONLog       bool
	Logger        *log.Logger
}

type CellFileSystemOption func(*CellFileSystemOptions) error

func newDefaultCellFileSystemOptions() *CellFileSystemOptions {
	return &CellFileSystemOptions{
		LogLevel: log.Info,
	}
}

func WithLogLevel(logLevel log.LogLevel) CellFileSystemOption {
	return func(opts *CellFileSystemOptions) error {
		opts.LogLevel = logLevel
		return nil
	}
}

// WithLogLevelName parses name with log.ParseLevel.
func WithLogLevelName(name string) CellFileSystemOption {
	return func(opts *CellFileSystemOptions) error {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}

		opts.LogLevel = level
		return nil
	}
}

func WithoutTerminalLog() CellFileSystemOption {
	return func(opts *CellFileSystemOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) CellFileSystemOption {
	return func(opts *CellFileSystemOptions) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithJSONLog() CellFileSystemOption {
	return func(opts *CellFileSystemOptions) error {
		opts.JSONLog = true
		return nil
	}
}

// WithLogger uses logger instead of creating one. All other log options
// are ignored.
func WithLogger(logger *log.Logger) CellFileSystemOption {
	return func(opts *CellFileSystemOptions) error {
		opts.Logger = logger
		return nil
	}
}
