// Package fetch downloads the raw wine quality data set.
package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/logging"
)

// DefaultBaseURL is the UCI repository folder holding the data set.
const DefaultBaseURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/wine-quality/"

// Files are the names fetched by Fetch, in download order.
var Files = []string{
	"winequality.names",
	"winequality-red.csv",
	"winequality-white.csv",
}

var log = logging.New("fetch")

// Fetcher downloads Files into Folder. Files already present are left alone.
type Fetcher struct {
	Folder  string
	BaseURL string
	Client  *http.Client
}

// New returns a Fetcher for folder using DefaultBaseURL.
func New(folder string) *Fetcher {
	return &Fetcher{Folder: folder, BaseURL: DefaultBaseURL, Client: http.DefaultClient}
}

// Fetch downloads every missing file, stopping at the first failure.
func (f *Fetcher) Fetch(ctx context.Context) error {
	for _, name := range Files {
		if err := f.FetchFile(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// FetchFile downloads a single file unless it already exists. A failed
// download removes whatever was written so the next run tries again.
func (f *Fetcher) FetchFile(ctx context.Context, name string) error {
	path := filepath.Join(f.Folder, name)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		log.Infof("%s exists, skipping download.", path)
		return nil
	}
	if err := os.MkdirAll(f.Folder, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", f.Folder)
	}

	url := strings.TrimSuffix(f.BaseURL, "/") + "/" + name
	log.Infof("Downloading from %s to %s", url, path)
	if err := f.download(ctx, url, path); err != nil {
		os.Remove(path)
		log.Errorf("Error fetching file %s from %s: %v", path, url, err)
		return err
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "get %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("get %s: %s", url, resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(out.Close(), "close %s", path)
}
