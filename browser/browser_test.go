package browser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func TestLocator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{name: "xpath", loc: ByXPath(`//fin-streamer[@data-field="regularMarketPrice"]`), want: `xpath://fin-streamer[@data-field="regularMarketPrice"]`},
		{name: "css", loc: ByCSS("td.Ta\\(end\\)"), want: "css:td.Ta\\(end\\)"},
		{name: "zero value is xpath", loc: Locator{Query: "//h1"}, want: "xpath://h1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	var err error = fmt.Errorf("holders: %w", TimeoutError{
		Op:      "element",
		Target:  ByXPath("//section").String(),
		Timeout: 10 * time.Second,
	})

	var te TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("expected errors.As to find TimeoutError")
	}
	if te.Timeout != 10*time.Second {
		t.Errorf("timeout = %s, want 10s", te.Timeout)
	}
	if want := "holders: timed out after 10s waiting for element xpath://section"; err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestSaveScreenshot(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "shots")
	now := time.Date(2024, time.March, 5, 14, 7, 9, 123456000, time.UTC)
	png := []byte{0x89, 'P', 'N', 'G'}

	path, err := SaveScreenshot(dir, png, now)
	if err != nil {
		t.Fatalf("SaveScreenshot: %v", err)
	}

	if want := filepath.Join(dir, "ss_03-05-2024_14:07:09.123456.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read screenshot: %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("screenshot bytes = %v, want %v", got, png)
	}
}

func TestSaveSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	html := "<html><body><h1>ACME Corp (ACME)</h1></body></html>"

	path, err := SaveSnapshot(dir, "ACME/holders", html, now)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if want := filepath.Join(dir, "page_ACME_holders_03-05-2024_14:07:09.000000.html.gz"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if string(body) != html {
		t.Errorf("snapshot = %q, want %q", body, html)
	}
}
