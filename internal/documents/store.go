package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Folder is a top-level bucket for one document kind
type Folder string

const (
	FolderIds      Folder = "ids"
	FolderSelfies  Folder = "selfies"
	FolderReceipts Folder = "receipts"
)

var ErrInvalidPath = errors.New("invalid document path")

const maxNameAttempts = 100

// Store persists uploaded documents and resolves their public links
type Store interface {
	Put(ctx context.Context, folder Folder, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// LocalStore keeps documents under a root directory on the local filesystem
type LocalStore struct {
	root      string
	publicURL string
	nowFunc   func() time.Time
}

func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("documents directory cannot be empty")
	}
	for _, f := range []Folder{FolderIds, FolderSelfies, FolderReceipts} {
		if err := os.MkdirAll(filepath.Join(root, string(f)), 0o750); err != nil {
			return nil, fmt.Errorf("unable to create %s folder: %w", f, err)
		}
	}
	return &LocalStore{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		nowFunc:   time.Now,
	}, nil
}

// ObjectPath names an upload {folder}/{unixMillis}-{filename}
func ObjectPath(folder Folder, filename string, at time.Time) string {
	return path.Join(string(folder), fmt.Sprintf("%d-%s", at.UnixMilli(), sanitizeFilename(filename)))
}

func (s *LocalStore) Put(ctx context.Context, folder Folder, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch folder {
	case FolderIds, FolderSelfies, FolderReceipts:
	default:
		return "", fmt.Errorf("unknown document folder %q", folder)
	}

	// Same-millisecond uploads of one filename move to the next free millisecond
	at := s.nowFunc()
	var objectPath, full string
	var f *os.File
	for attempt := 0; ; attempt++ {
		objectPath = ObjectPath(folder, filename, at.Add(time.Duration(attempt)*time.Millisecond))
		var err error
		full, err = s.resolve(objectPath)
		if err != nil {
			return "", err
		}
		f, err = os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || attempt >= maxNameAttempts {
			return "", fmt.Errorf("unable to create document: %w", err)
		}
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("unable to write document: %w", err)
	}

	zap.L().Info("Document stored",
		zap.String("path", objectPath),
		zap.Int64("bytes", n))
	return objectPath, nil
}

func (s *LocalStore) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalStore) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if objectPath == "" {
		return nil
	}
	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to delete document: %w", err)
	}
	return nil
}

func (s *LocalStore) PublicURL(objectPath string) string {
	if objectPath == "" {
		return ""
	}
	return s.publicURL + "/" + objectPath
}

func (s *LocalStore) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" || strings.Contains(objectPath, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	// Fold accents so "reçu.pdf" keeps its letters as "recu.pdf"
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, name); err == nil {
		name = folded
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == "_" {
		return "upload"
	}
	return name
}
