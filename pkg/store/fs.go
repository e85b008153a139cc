package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

const nodeMetadataFile = "node.json"

// FS serves nodes from a directory tree:
//
//	<docID>/node.json          optional metadata
//	<docID>/<attachment>.json  attachment payloads
type FS struct {
	files fs.FS
}

var _ Store = (*FS)(nil)

// NewFS wraps an fs.FS.
func NewFS(files fs.FS) *FS {
	return &FS{files: files}
}

// NewDir serves nodes from a directory on disk.
func NewDir(root string) *FS {
	return NewFS(os.DirFS(root))
}

// QueryOne resolves the node directory and its optional metadata.
func (s *FS) QueryOne(ctx context.Context, query Query) (Node, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}
	if s == nil || s.files == nil {
		return nil, errors.New("store: fs is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dir := query.DocID
	if !fs.ValidPath(dir) {
		return nil, fmt.Errorf("store: invalid document id %q", dir)
	}
	info, err := fs.Stat(s.files, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("store: stat node %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a node directory", ErrNodeNotFound, dir)
	}

	node := &fsNode{files: s.files, id: query.DocID}
	data, err := fs.ReadFile(s.files, path.Join(dir, nodeMetadataFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("store: read node %s: %w", dir, err)
	default:
		if err := json.Unmarshal(data, &node.metadata); err != nil {
			return nil, fmt.Errorf("store: decode node %s: %w", dir, err)
		}
	}
	return node, nil
}

type fsNode struct {
	files    fs.FS
	id       string
	metadata map[string]any
}

func (n *fsNode) ID() string { return n.id }

func (n *fsNode) Metadata() map[string]any { return n.metadata }

func (n *fsNode) Download(ctx context.Context, attachment string) ([]byte, error) {
	if attachment == "" {
		return nil, errors.New("store: attachment name is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	name := path.Join(n.id, attachment+".json")
	data, err := fs.ReadFile(n.files, name)
	if err != nil {
		return nil, fmt.Errorf("store: download %s/%s: %w", n.id, attachment, err)
	}
	return data, nil
}
