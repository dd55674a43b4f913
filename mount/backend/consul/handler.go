package consul

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"iter"
	"slices"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
)

// ConsulHandler serves values of the Consul KV store as files.
//
// Architecture:
// - Each key below the configured prefix is a file, its value the content
// - Directories exist implicitly for every key prefix ending at a separator
// - Keys ending with a separator are folder markers and count as directories
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Best suited for configuration files, small assets, and metadata storage
type ConsulHandler struct {
	kv      *api.KV
	address string
	prefix  string
}

// ConsulHandlerConfig contains configuration options for the Consul handler
type ConsulHandlerConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string `json:"address" yaml:"address"`

	// Token for Consul ACL authentication (optional)
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Datacenter to use (optional)
	Datacenter string `json:"datacenter,omitempty" yaml:"datacenter,omitempty"`

	// Prefix for all keys in Consul KV (default: none)
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

func NewConsulHandler(config *ConsulHandlerConfig) (*ConsulHandler, error) {
	if config == nil {
		config = &ConsulHandlerConfig{}
	}

	address := config.Address
	if address == "" {
		address = "127.0.0.1:8500"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulHandler{
		kv:      client.KV(),
		address: address,
		prefix:  normalizePrefix(config.Prefix),
	}, nil
}

// Address returns the Consul server the handler talks to.
func (ch *ConsulHandler) Address() string {
	return ch.address
}

// normalizePrefix turns prefix into either the empty string or a relative
// key prefix ending with a separator.
func normalizePrefix(prefix string) string {
	return backend.DirPrefix(data.ToRelativePath(prefix))
}

// Name returns the identifier name defined for this handler
func (*ConsulHandler) Name() string {
	return "consul"
}

// buildKey constructs the full Consul KV key from the handler path
func (ch *ConsulHandler) buildKey(path string) string {
	return ch.prefix + data.ToRelativePath(path)
}

// dirKey returns the full key prefix shared by every key below rel.
func (ch *ConsulHandler) dirKey(rel string) string {
	return ch.prefix + backend.DirPrefix(rel)
}

// Store writes content at key, replacing any previous value.
func (ch *ConsulHandler) Store(ctx context.Context, key string, content []byte) error {
	key, err := backend.NormalizeKey(key)
	if err != nil {
		return err
	}

	pair := &api.KVPair{
		Key:   ch.buildKey(key),
		Value: content,
	}

	if _, err := ch.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return data.NewHandlerError(ch.Name(), "store", key, err)
	}

	return nil
}

// lookup returns the value at path, or nil with FileTypeDirectory if path
// is a directory.
func (ch *ConsulHandler) lookup(ctx context.Context, op, path string) (*api.KVPair, data.FileType, error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, data.FileTypeFile, err
	}

	opts := (&api.QueryOptions{}).WithContext(ctx)
	rel := data.ToRelativePath(path)
	if rel != "" {
		pair, _, err := ch.kv.Get(ch.buildKey(rel), opts)
		if err != nil {
			return nil, data.FileTypeFile, data.NewHandlerError(ch.Name(), op, path, err)
		}
		if pair != nil {
			return pair, data.FileTypeFile, nil
		}
	}

	keys, _, err := ch.kv.Keys(ch.dirKey(rel), "/", opts)
	if err != nil {
		return nil, data.FileTypeFile, data.NewHandlerError(ch.Name(), op, path, err)
	}
	if rel != "" && len(keys) == 0 {
		return nil, data.FileTypeFile, data.NewHandlerError(ch.Name(), op, path, fs.ErrNotExist)
	}

	return nil, data.FileTypeDirectory, nil
}

func (ch *ConsulHandler) Stat(ctx context.Context, path string) (*data.Stat, error) {
	pair, fileType, err := ch.lookup(ctx, "stat", path)
	if err != nil {
		return nil, err
	}

	if fileType == data.FileTypeDirectory {
		return data.NewDirectoryStat(data.PermissionsReadWrite), nil
	}

	return data.NewFileStat(uint64(len(pair.Value)), data.PermissionsReadWrite), nil
}

// ReadDir lists the direct children of path with a single separator
// bounded key listing.
func (ch *ConsulHandler) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	if err := data.ValidatePath(path); err != nil {
		return nil, err
	}

	rel := data.ToRelativePath(path)
	if rel != "" {
		if pair, _, err := ch.kv.Get(ch.buildKey(rel), (&api.QueryOptions{}).WithContext(ctx)); err == nil && pair != nil {
			return nil, data.NewHandlerError(ch.Name(), "readdir", path, data.ErrNotDirectory)
		}
	}

	prefix := ch.dirKey(rel)
	keys, _, err := ch.kv.Keys(prefix, "/", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, data.NewHandlerError(ch.Name(), "readdir", path, err)
	}
	if rel != "" && len(keys) == 0 {
		return nil, data.NewHandlerError(ch.Name(), "readdir", path, fs.ErrNotExist)
	}

	return slices.Values(childNames(keys, prefix)), nil
}

// childNames strips prefix from every key returned by a separator bounded
// listing. Folder keys keep their trailing separator and the folder marker
// of the listed directory itself is skipped.
func childNames(keys []string, prefix string) []string {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(key, prefix), data.Separator)
		if name == "" {
			continue
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return slices.Compact(names)
}

func (ch *ConsulHandler) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	pair, fileType, err := ch.lookup(ctx, "open", path)
	if err != nil {
		return nil, err
	}
	if fileType == data.FileTypeDirectory {
		return nil, data.NewHandlerError(ch.Name(), "open", path, data.ErrIsDirectory)
	}

	return io.NopCloser(bytes.NewReader(pair.Value)), nil
}
