package playlist

import (
	"path/filepath"
	"strings"
)

// FallbackStationName is the name given to stream entries that carry no
// #EXTINF title.
const FallbackStationName = "New Stream"

const extinfPrefix = "#EXTINF:"

// Parse reads extended-M3U playlist text into a Folder named after
// sourceName. The parser is deliberately forgiving: any line it does not
// recognize (headers, comments, blanks, unknown tags) is skipped, and a
// stream URL is any line starting with "http". Both LF and CRLF input parse
// identically. The only non-determinism is the freshly minted IDs.
func Parse(content, sourceName string) Folder {
	var stations []Station
	var pending string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, extinfPrefix):
			// Only the first comma delimits the title; a title may itself
			// contain commas.
			pending = ""
			if i := strings.Index(line, ","); i >= 0 {
				pending = strings.TrimSpace(line[i+1:])
			}

		case strings.HasPrefix(line, "http"):
			name := pending
			if name == "" {
				name = FallbackStationName
			}

			stations = append(stations, Station{
				ID:   NewID(),
				Name: name,
				URL:  line,
			})

			pending = ""
		}
	}

	return Folder{
		ID:       NewID(),
		Name:     FolderName(sourceName),
		Stations: stations,
	}
}

// FolderName derives a folder's display name from the name of the file it
// was imported from: a known playlist extension is stripped case-insensitively
// and the rest is uppercased.
func FolderName(sourceName string) string {
	name := strings.TrimSpace(sourceName)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".m3u", ".m3u8":
		name = name[:len(name)-len(filepath.Ext(name))]
	}

	return strings.ToUpper(name)
}
