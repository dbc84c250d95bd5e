package watermark

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultFile is the default path of the FileStore.
const DefaultFile = ".last-payment"

// FileStore keeps the watermark in a single text file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore at path. The file is created empty if it
// does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create watermark file %s", path)
	}
	if err := f.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return &FileStore{path: path}, nil
}

// LastPaymentID returns the content of the file without surrounding
// whitespace.
func (s *FileStore) LastPaymentID() (string, error) {
	b, err := ioutil.ReadFile(s.path)
	if err != nil {
		return "", errors.Wrapf(err, "could not read watermark file %s", s.path)
	}
	return strings.TrimSpace(string(b)), nil
}

// SetLastPaymentID replaces the content of the file with id. The new content
// is written to a temporary file first and renamed over the old one.
func (s *FileStore) SetLastPaymentID(id string) error {
	tmp, err := ioutil.TempFile(filepath.Dir(s.path), filepath.Base(s.path)+".tmp")
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not write watermark file %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.WithStack(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not replace watermark file %s", s.path)
	}
	return nil
}
