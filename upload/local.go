package upload

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// LocalStore keeps every upload in <dir>/<id>/<name>.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (Artifact, error) {
	id, err := newID()
	if err != nil {
		return Artifact{}, err
	}
	name = cleanName(name)

	dir := filepath.Join(s.dir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return Artifact{}, err
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		os.RemoveAll(dir)
		return Artifact{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(dir)
		return Artifact{}, err
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	return Artifact{ID: id, Name: name, Size: n, ContentType: contentType}, nil
}

func (s *LocalStore) Stat(ctx context.Context, id string) (Artifact, error) {
	if !validID(id) {
		return Artifact{}, ErrNotFound
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, ErrNotFound
	}
	if err != nil {
		return Artifact{}, err
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{
			ID:          id,
			Name:        e.Name(),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(e.Name())),
		}, nil
	}
	return Artifact{}, ErrNotFound
}
