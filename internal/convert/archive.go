package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
)

// fixedZipTime makes archives byte-for-byte reproducible (1980-01-01 UTC).
var fixedZipTime = time.Unix(315532800, 0).UTC()

// archive is an in-memory zip written with maximum deflate compression.
type archive struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	zw    *zip.Writer
	count int
}

func newArchive() *archive {
	a := &archive{}
	a.zw = zip.NewWriter(&a.buf)
	a.zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	return a
}

// add writes one entry. Names always use forward slashes.
func (a *archive) add(name string, r io.Reader) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := &zip.FileHeader{Name: zipEntryName(name), Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = fixedZipTime
	w, err := a.zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	a.count++
	return nil
}

func (a *archive) addBytes(name string, data []byte) error {
	return a.add(name, bytes.NewReader(data))
}

// bytes finalizes the archive.
func (a *archive) bytes() ([]byte, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.zw.Close(); err != nil {
		return nil, 0, fmt.Errorf("finalize zip: %w", err)
	}
	return a.buf.Bytes(), a.count, nil
}

// zipEntryName normalizes a path for use inside an archive: backslashes and
// drive letters are removed, and "." and ".." segments are resolved without
// escaping the root.
func zipEntryName(p string) string {
	s := strings.ReplaceAll(p, `\`, "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return strings.Join(stack, "/")
}

// zipFromFiles archives files in the given order.
func zipFromFiles(files map[string][]byte, order []string) ([]byte, error) {
	a := newArchive()
	for _, name := range order {
		if err := a.addBytes(name, files[name]); err != nil {
			return nil, err
		}
	}
	data, _, err := a.bytes()
	return data, err
}
