package s3

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"iter"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/log"
	"github.com/mwantia/cellfs/mount/backend"
)

// S3Handler serves the objects of an S3 compatible bucket. Directories exist
// implicitly for every key prefix, or explicitly as zero byte objects whose
// key ends with a separator.
type S3Handler struct {
	client *minio.Client
	bucket string
	prefix string
	log    *log.Logger
}

// S3HandlerConfig contains configuration options for the S3 handler
type S3HandlerConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Bucket    string `json:"bucket" yaml:"bucket"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	UseSSL    bool   `json:"use_ssl,omitempty" yaml:"use_ssl,omitempty"`

	// Prefix for all object keys (optional)
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Logger receives warnings about truncated listings (default: stdout)
	Logger *log.Logger `json:"-" yaml:"-"`
}

func NewS3Handler(config *S3HandlerConfig) (*S3Handler, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger("s3", log.Warn, "", false)
	}

	return &S3Handler{
		client: client,
		bucket: config.Bucket,
		prefix: backend.DirPrefix(data.ToRelativePath(config.Prefix)),
		log:    logger,
	}, nil
}

// Returns the identifier name defined for this handler
func (*S3Handler) Name() string {
	return "s3"
}

func (sh *S3Handler) objectKey(rel string) string {
	return sh.prefix + rel
}

func (sh *S3Handler) dirKey(rel string) string {
	return sh.prefix + backend.DirPrefix(rel)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// Store uploads content at key, replacing any previous object.
func (sh *S3Handler) Store(ctx context.Context, key string, content []byte) error {
	key, err := backend.NormalizeKey(key)
	if err != nil {
		return err
	}

	_, err = sh.client.PutObject(ctx, sh.bucket, sh.objectKey(key), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	if err != nil {
		return data.NewHandlerError(sh.Name(), "store", key, err)
	}

	return nil
}

// lookup stats the object at path, or returns nil with FileTypeDirectory if
// path is a directory.
func (sh *S3Handler) lookup(ctx context.Context, op, path string) (*minio.ObjectInfo, data.FileType, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, data.FileTypeFile, err
	}

	rel := data.ToRelativePath(path)
	if rel == "" {
		return nil, data.FileTypeDirectory, nil
	}

	info, err := sh.client.StatObject(ctx, sh.bucket, sh.objectKey(rel), minio.StatObjectOptions{})
	if err == nil {
		return &info, data.FileTypeFile, nil
	}
	if !isNoSuchKey(err) {
		return nil, data.FileTypeFile, data.NewHandlerError(sh.Name(), op, path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	object, ok := <-sh.client.ListObjects(ctx, sh.bucket, minio.ListObjectsOptions{
		Prefix:  sh.dirKey(rel),
		MaxKeys: 1,
	})
	if !ok {
		return nil, data.FileTypeFile, data.NewHandlerError(sh.Name(), op, path, fs.ErrNotExist)
	}
	if object.Err != nil {
		return nil, data.FileTypeFile, data.NewHandlerError(sh.Name(), op, path, object.Err)
	}

	return nil, data.FileTypeDirectory, nil
}

func (sh *S3Handler) Stat(ctx context.Context, path string) (*data.Stat, error) {
	info, fileType, err := sh.lookup(ctx, "stat", path)
	if err != nil {
		return nil, err
	}

	if fileType == data.FileTypeDirectory {
		return data.NewDirectoryStat(data.PermissionsReadWrite), nil
	}

	return data.NewFileStat(uint64(info.Size), data.PermissionsReadWrite), nil
}

// ReadDir lists the direct children of path. The listing is paged by the
// client in the background and holds a request open until the returned
// sequence is ranged over to the end or stopped early, so callers must
// always range over it. A listing that fails midway ends the sequence and
// is logged as a warning.
func (sh *S3Handler) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	_, fileType, err := sh.lookup(ctx, "readdir", path)
	if err != nil {
		return nil, err
	}
	if fileType != data.FileTypeDirectory {
		return nil, data.NewHandlerError(sh.Name(), "readdir", path, data.ErrNotDirectory)
	}

	prefix := sh.dirKey(data.ToRelativePath(path))
	ctx, cancel := context.WithCancel(ctx)
	objects := sh.client.ListObjects(ctx, sh.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	return sh.childNames(path, prefix, objects, cancel), nil
}

// childNames turns a listing below prefix into child names and calls
// cancel once iteration ends.
func (sh *S3Handler) childNames(path, prefix string, objects <-chan minio.ObjectInfo, cancel context.CancelFunc) iter.Seq[string] {
	return func(yield func(string) bool) {
		defer cancel()

		for object := range objects {
			if object.Err != nil {
				sh.log.Warn("Listing of '%s' truncated: %v", path, object.Err)
				return
			}

			name := strings.TrimSuffix(strings.TrimPrefix(object.Key, prefix), data.Separator)
			if name == "" {
				continue
			}
			if !yield(name) {
				return
			}
		}
	}
}

func (sh *S3Handler) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	_, fileType, err := sh.lookup(ctx, "open", path)
	if err != nil {
		return nil, err
	}
	if fileType == data.FileTypeDirectory {
		return nil, data.NewHandlerError(sh.Name(), "open", path, data.ErrIsDirectory)
	}

	object, err := sh.client.GetObject(ctx, sh.bucket, sh.objectKey(data.ToRelativePath(path)), minio.GetObjectOptions{})
	if err != nil {
		return nil, data.NewHandlerError(sh.Name(), "open", path, err)
	}

	return object, nil
}
