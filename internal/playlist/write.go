package playlist

import (
	"io"

	"github.com/pkg/errors"
	"github.com/ushis/m3u"
)

// Write renders the folder back out as an extended M3U playlist. Live
// streams have no known duration, so every entry is written with -1.
func Write(f Folder, w io.Writer) error {
	plist := make(m3u.Playlist, len(f.Stations))

	for i, st := range f.Stations {
		plist[i] = m3u.Track{
			Title: st.Name,
			Path:  st.URL,
			Time:  -1,
		}
	}

	if _, err := plist.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write playlist")
	}

	return nil
}
