package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("storage: invalid object key")

// PutInput describes one object. An empty Key gets a generated name that
// keeps the extension of Filename.
type PutInput struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

// LabelKey groups an order's label files under the order id.
func LabelKey(orderID, filename string) string {
	return cleanSegment(orderID) + "/" + uuid.NewString() + safeExt(filename)
}

// objectKey resolves the key for in, rejecting anything that would escape
// the backend root.
func objectKey(in PutInput) (string, error) {
	if in.Key == "" {
		return uuid.NewString() + safeExt(in.Filename), nil
	}
	return cleanKey(in.Key)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(key), nil
}

func cleanSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "unassigned"
	}
	return s
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".png", ".zpl", ".epl2":
		return ext
	default:
		return ""
	}
}
