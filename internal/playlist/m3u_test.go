package playlist

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

type entry struct {
	name string
	url  string
}

func renderM3U(entries []entry) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "#EXTINF:-1,%s\n%s\n", e.name, e.url)
	}
	return b.String()
}

func assertStations(t *testing.T, got []Station, expect []entry) {
	t.Helper()

	var gotEntries []entry
	for _, st := range got {
		gotEntries = append(gotEntries, entry{name: st.Name, url: st.URL})
	}

	if ineqs := deep.Equal(gotEntries, expect); ineqs != nil {
		for _, ineq := range ineqs {
			t.Error(ineq)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		expect  []entry
	}{
		{
			name: "round trip",
			content: renderM3U([]entry{
				{"Nightride FM", "https://stream.nightride.fm/nightride.mp3"},
				{"Groove Salad", "http://ice1.somafm.com/groovesalad-128-mp3"},
				{"Deep Space One", "http://ice1.somafm.com/deepspaceone-128-mp3"},
			}),
			expect: []entry{
				{"Nightride FM", "https://stream.nightride.fm/nightride.mp3"},
				{"Groove Salad", "http://ice1.somafm.com/groovesalad-128-mp3"},
				{"Deep Space One", "http://ice1.somafm.com/deepspaceone-128-mp3"},
			},
		},
		{
			name:    "bare url falls back to default name",
			content: "http://example.com/stream",
			expect:  []entry{{FallbackStationName, "http://example.com/stream"}},
		},
		{
			name:    "only the first comma delimits the title",
			content: "#EXTINF:-1,Rock, Hits FM\nhttp://x/y",
			expect:  []entry{{"Rock, Hits FM", "http://x/y"}},
		},
		{
			name:    "extinf without comma keeps no pending title",
			content: "#EXTINF:-1\nhttp://x/y",
			expect:  []entry{{FallbackStationName, "http://x/y"}},
		},
		{
			name:    "consecutive extinf keeps the last title",
			content: "#EXTINF:-1,First\n#EXTINF:-1,Second\nhttp://x/y",
			expect:  []entry{{"Second", "http://x/y"}},
		},
		{
			name:    "title does not leak into the next entry",
			content: "#EXTINF:-1,Named\nhttp://x/a\nhttp://x/b",
			expect: []entry{
				{"Named", "http://x/a"},
				{FallbackStationName, "http://x/b"},
			},
		},
		{
			name:    "junk lines are skipped",
			content: "#EXTM3U\n\n#EXTGRP:stuff\nnot a url\n#EXTINF:-1,Kept\nhttp://x/y\n",
			expect:  []entry{{"Kept", "http://x/y"}},
		},
		{
			name:    "no urls yields an empty folder",
			content: "#EXTM3U\n#EXTINF:-1,Orphan title\n",
			expect:  nil,
		},
		{
			name:    "surrounding whitespace is trimmed",
			content: "  #EXTINF:-1,  Padded  \n  http://x/y  \n",
			expect:  []entry{{"Padded", "http://x/y"}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := Parse(test.content, "test.m3u")
			assertStations(t, f.Stations, test.expect)
		})
	}
}

func TestParseCRLF(t *testing.T) {
	entries := []entry{
		{"One", "http://x/1"},
		{"Two", "http://x/2"},
	}

	lf := Parse(renderM3U(entries), "crlf.m3u")
	crlf := Parse(strings.ReplaceAll(renderM3U(entries), "\n", "\r\n"), "crlf.m3u")

	assertStations(t, lf.Stations, entries)
	assertStations(t, crlf.Stations, entries)
}

func TestParseUniqueIDs(t *testing.T) {
	content := renderM3U([]entry{
		{"One", "http://x/1"},
		{"Two", "http://x/2"},
		{"Three", "http://x/3"},
	})

	seen := map[string]struct{}{}

	for i := 0; i < 2; i++ {
		f := Parse(content, "ids.m3u")

		if _, ok := seen[f.ID]; ok {
			t.Errorf("folder ID %q minted twice", f.ID)
		}
		seen[f.ID] = struct{}{}

		for _, st := range f.Stations {
			if _, ok := seen[st.ID]; ok {
				t.Errorf("station ID %q minted twice", st.ID)
			}
			seen[st.ID] = struct{}{}
		}
	}

	// 2 folders + 6 stations.
	if len(seen) != 8 {
		t.Errorf("expected 8 distinct IDs, got %d", len(seen))
	}
}

func TestFolderName(t *testing.T) {
	tests := []struct {
		source string
		expect string
	}{
		{"rock.m3u", "ROCK"},
		{"Top_40.M3U", "TOP_40"},
		{"live.m3u8", "LIVE"},
		{"noext", "NOEXT"},
		{"weird.txt", "WEIRD.TXT"},
		{"  indie.m3u  ", "INDIE"},
	}

	for _, test := range tests {
		if got := FolderName(test.source); got != test.expect {
			t.Errorf("FolderName(%q) = %q, expected %q", test.source, got, test.expect)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	entries := []entry{
		{"Nightride FM", "https://stream.nightride.fm/nightride.mp3"},
		{"Chillsynth", "https://stream.nightride.fm/chillsynth.mp3"},
	}

	orig := Parse(renderM3U(entries), "export.m3u")

	var b strings.Builder
	if err := Write(orig, &b); err != nil {
		t.Fatal("failed to write playlist:", err)
	}

	reparsed := Parse(b.String(), "export.m3u")
	assertStations(t, reparsed.Stations, entries)
}
