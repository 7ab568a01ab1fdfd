package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultFetchAttempts = 3
	DefaultFetchDelay    = 500 * time.Millisecond
)

type OpenOptions struct {
	// FetchAttempts bounds how many times a remote snapshot is requested.
	FetchAttempts uint
	FetchDelay    time.Duration
	HTTPClient    *http.Client
}

func (o OpenOptions) withDefaults() OpenOptions {
	if o.FetchAttempts == 0 {
		o.FetchAttempts = DefaultFetchAttempts
	}
	if o.FetchDelay == 0 {
		o.FetchDelay = DefaultFetchDelay
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	return o
}

// IsRemote reports whether a location names an http(s) resource.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// IsSQLite reports whether a location names a SQLite snapshot database.
func IsSQLite(location string) bool {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return !IsRemote(location)
	}
	return false
}

// Open loads a snapshot from a JSON file (optionally gzipped), a SQLite
// database, or an http(s) URL serving JSON.
func Open(ctx context.Context, location string, opts OpenOptions) (*Snapshot, error) {
	opts = opts.withDefaults()
	start := time.Now()
	var (
		snap *Snapshot
		err  error
	)
	switch {
	case IsRemote(location):
		snap, err = Fetch(ctx, location, opts)
	case IsSQLite(location):
		snap, err = loadSQLite(ctx, location)
	default:
		snap, err = ReadFile(location)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("location", location).Dur("elapsed", time.Since(start)).
		Int("records", len(snap.Moves)).Msg("snapshot-loaded")
	return snap, nil
}

func loadSQLite(ctx context.Context, path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	store, err := OpenSQLStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip snapshot %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	snap, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Fetch downloads a JSON snapshot, retrying transient failures. Client
// errors (4xx) are not retried.
func Fetch(ctx context.Context, url string, opts OpenOptions) (*Snapshot, error) {
	opts = opts.withDefaults()
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := opts.HTTPClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.Unrecoverable(fmt.Errorf("fetching %s: status %d", url, resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
			}
			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(opts.FetchAttempts),
		retry.Delay(opts.FetchDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Str("url", url).Msg("snapshot-fetch-retry")
		}),
	)
	if err != nil {
		return nil, err
	}
	var r io.Reader = bytes.NewReader(body)
	if len(body) > 1 && body[0] == 0x1f && body[1] == 0x8b {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return Decode(r)
}
