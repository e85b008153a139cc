// Package store reaches the document store that holds command nodes and
// their "schema" / "options" attachments. Two strategies are provided: an
// fs.FS tree (local directories, embedded fixtures) and an HTTP API.
package store

import (
	"context"
	"errors"
	"strings"
)

// Attachment names the command field reads from every node.
const (
	AttachmentSchema  = "schema"
	AttachmentOptions = "options"
)

// ErrNodeNotFound is returned by QueryOne when no node matches.
var ErrNodeNotFound = errors.New("store: node not found")

// Query selects a single node. DocID matches the node's document id (the
// "_doc" filter of the store).
type Query struct {
	DocID string
}

// Filter renders the query in the store's filter notation.
func (q Query) Filter() map[string]any {
	return map[string]any{"_doc": q.DocID}
}

func (q Query) validate() error {
	if strings.TrimSpace(q.DocID) == "" {
		return errors.New("store: query requires a document id")
	}
	return nil
}

// Node is a handle on a resolved document.
type Node interface {
	ID() string
	Metadata() map[string]any
	// Download returns the raw payload of the named attachment.
	Download(ctx context.Context, attachment string) ([]byte, error)
}

// Store resolves nodes.
type Store interface {
	QueryOne(ctx context.Context, query Query) (Node, error)
}
