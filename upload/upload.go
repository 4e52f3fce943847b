// Package upload stores files attached to form answers. A stored file is
// identified by an opaque id which a file answer submits as its value.
package upload

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
)

var ErrNotFound = errors.New("upload not found")

type Artifact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// Ext returns the lower-cased extension of the artifact name, without the dot.
func (a Artifact) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(a.Name), "."))
}

type Store interface {
	// Put stores r under a new id. size is -1 when unknown.
	Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (Artifact, error)
	// Stat resolves an id; it fails with ErrNotFound for unknown ids.
	Stat(ctx context.Context, id string) (Artifact, error)
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// validID guards store keys against path tricks: only canonical uuids are
// accepted.
func validID(id string) bool {
	u, err := uuid.FromString(id)
	return err == nil && u.String() == id
}

var reservedNames = map[string]bool{"": true, ".": true, "..": true, "/": true}

func cleanName(name string) string {
	name = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if reservedNames[name] {
		return "upload"
	}
	return name
}
