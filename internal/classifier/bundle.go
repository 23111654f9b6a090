package classifier

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// BundleExt is the file extension of saved bundles.
const BundleExt = ".pkl"

// BundlePath returns the path of a bundle saved at now.
func BundlePath(dir string, now time.Time) string {
	return filepath.Join(dir, strconv.FormatInt(now.Unix(), 10)+BundleExt)
}

// SaveBundle writes b to <dir>/<unix seconds>.pkl, gob encoded and gzip
// compressed at the best level. It fails if the file already exists.
func SaveBundle(dir string, b *Bundle, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create training dir: %w", err)
	}
	path := BundlePath(dir, now)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		f.Close()
		return "", err
	}
	if err := gob.NewEncoder(zw).Encode(b); err != nil {
		zw.Close()
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode bundle: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("compress bundle: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close bundle: %w", err)
	}
	return path, nil
}

// LoadBundle reads a bundle written by SaveBundle.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", path, err)
	}
	defer zr.Close()

	var b Bundle
	if err := gob.NewDecoder(zr).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return &b, nil
}
