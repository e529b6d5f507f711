// Package cache stores generated artifacts on disk.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/dotcommander/modelkit/internal/storage"
)

const (
	metaExt        = ".json"
	shardPrefixLen = 2
)

var errInvalidID = errors.New("invalid id")

// Artifacts is a file-backed artifact store. Each artifact is a JSON
// metadata record next to its raw payload, sharded by ID prefix.
type Artifacts struct {
	dir string
}

// New opens the store rooted at dir, creating it if needed.
func New(dir string) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Artifacts{dir: dir}, nil
}

func (c *Artifacts) shard(id string) string {
	return filepath.Join(c.dir, id[:shardPrefixLen])
}

func (c *Artifacts) metaPath(id string) string {
	return filepath.Join(c.shard(id), id+metaExt)
}

// DataPath returns where the payload of a is stored.
func (c *Artifacts) DataPath(a proto.Artifact) string {
	return filepath.Join(c.shard(a.ID), a.ID+extension(a.MediaType))
}

func extension(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// Save writes a and returns the path of its payload. Artifacts without
// inline data only get a metadata record and an empty path.
func (c *Artifacts) Save(a proto.Artifact) (string, error) {
	if !storage.ValidID(a.ID) {
		return "", fmt.Errorf("save: %w", errInvalidID)
	}
	var path string
	if len(a.Data) > 0 {
		path = c.DataPath(a)
		if err := writeAtomic(path, func(w io.Writer) error {
			_, err := w.Write(a.Data)
			return err //nolint:wrapcheck
		}); err != nil {
			return "", fmt.Errorf("save: %w", err)
		}
	}
	meta := a
	meta.Data = nil
	if err := writeAtomic(c.metaPath(a.ID), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta) //nolint:wrapcheck
	}); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return path, nil
}

// Load reads the artifact id, payload included.
func (c *Artifacts) Load(id string) (proto.Artifact, error) {
	var a proto.Artifact
	if !storage.ValidID(id) {
		return a, fmt.Errorf("load: %w", errInvalidID)
	}
	bts, err := os.ReadFile(c.metaPath(id))
	if err != nil {
		return a, fmt.Errorf("load: %w", err)
	}
	if err := json.Unmarshal(bts, &a); err != nil {
		return a, fmt.Errorf("load: %w", err)
	}
	data, err := os.ReadFile(c.DataPath(a))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return a, fmt.Errorf("load: %w", err)
	}
	a.Data = data
	return a, nil
}

// Find resolves the full ID of the artifact whose ID starts with prefix.
func (c *Artifacts) Find(prefix string) (string, error) {
	prefix = strings.ToLower(prefix)
	if storage.ValidID(prefix) {
		return prefix, nil
	}
	if !storage.ValidIDPrefix(prefix, shardPrefixLen) {
		return "", fmt.Errorf("find: %w: %s", errInvalidID, prefix)
	}
	matches, err := filepath.Glob(filepath.Join(c.shard(prefix), prefix+"*"+metaExt))
	if err != nil {
		return "", fmt.Errorf("find: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", storage.ErrNoMatches, prefix)
	case 1:
		return strings.TrimSuffix(filepath.Base(matches[0]), metaExt), nil
	default:
		return "", fmt.Errorf("%w: %s", storage.ErrManyMatches, prefix)
	}
}

// Delete removes the artifact id.
func (c *Artifacts) Delete(id string) error {
	a, err := c.Load(id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := os.Remove(c.DataPath(a)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete: %w", err)
	}
	if err := os.Remove(c.metaPath(id)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func writeAtomic(path string, writeFn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeFn(tmp); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
