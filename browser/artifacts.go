package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const artifactTimeLayout = "01-02-2006_15:04:05.000000"

// SaveScreenshot writes png into dir as ss_<timestamp>.png and returns the path.
func SaveScreenshot(dir string, png []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(dir, "ss_"+now.Format(artifactTimeLayout)+".png")
	if err := os.WriteFile(path, png, 0600); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}

// SaveSnapshot writes the rendered HTML of a page gzip-compressed into dir
// and returns the path.
func SaveSnapshot(dir, label, html string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("page_%s_%s.html.gz", sanitizeLabel(label), now.Format(artifactTimeLayout))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	zw := gzip.NewWriter(f)
	zw.Name = strings.TrimSuffix(name, ".gz")
	zw.ModTime = now

	if _, err := zw.Write([]byte(html)); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot: %w", err)
	}
	return path, nil
}

func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
