package state

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/pulse/internal/playlist"
)

// Source is one named bundled playlist that can be fetched for first-run
// preloading.
type Source struct {
	Name  string
	Fetch func(ctx context.Context) ([]byte, error)
}

// BulkPreloadIfEmpty populates the library from the given sources, but only
// when the library is still empty after hydration; a prior import history is
// never overwritten. Sources are fetched concurrently and fail
// independently: one unreachable or unparsable source is logged and skipped
// without aborting the rest. Folders that parse to zero stations are
// discarded. The surviving folders are installed as a single update.
func (s *Store) BulkPreloadIfEmpty(ctx context.Context, sources []Source) {
	if len(s.folders) > 0 {
		return
	}

	folders := make([]*playlist.Folder, len(sources))

	var wg sync.WaitGroup
	wg.Add(len(sources))

	for i, src := range sources {
		go func(i int, src Source) {
			defer wg.Done()

			b, err := src.Fetch(ctx)
			if err != nil {
				log.Warn().Err(err).Str("source", src.Name).Msg("skipping preload source")
				return
			}

			f := playlist.Parse(string(b), src.Name)
			if len(f.Stations) == 0 {
				return
			}

			f.Listeners = seedListeners(preloadSeed)
			folders[i] = &f
		}(i, src)
	}

	wg.Wait()

	var loaded []playlist.Folder
	for _, f := range folders {
		if f != nil {
			loaded = append(loaded, *f)
		}
	}

	if len(loaded) == 0 {
		return
	}

	s.folders = loaded
	s.persist()
}

// DefaultSourceNames are the playlists bundled with Pulse.
var DefaultSourceNames = []string{
	"india.m3u",
	"indie.m3u",
	"pop.m3u",
	"rap.m3u",
	"rock.m3u",
	"top_40.m3u",
	"urban.m3u",
}

const fetchTimeout = 10 * time.Second

// PreloadSources builds fetchers for the named playlists relative to base.
// An http(s) base fetches over the network; anything else is read as a
// directory on disk.
func PreloadSources(base string, names []string) []Source {
	sources := make([]Source, len(names))

	for i, name := range names {
		name := name

		var fetch func(ctx context.Context) ([]byte, error)
		if strings.HasPrefix(base, "http") {
			url := strings.TrimSuffix(base, "/") + "/" + name
			fetch = func(ctx context.Context) ([]byte, error) {
				return fetchHTTP(ctx, url)
			}
		} else {
			path := filepath.Join(base, name)
			fetch = func(ctx context.Context) ([]byte, error) {
				return os.ReadFile(path)
			}
		}

		sources[i] = Source{Name: name, Fetch: fetch}
	}

	return sources
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to make request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch playlist")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
