// Package playlist implements the M3U station playlist format used by Pulse
// and the record types it parses into.
package playlist

import "github.com/google/uuid"

// Station is a single playable stream entry.
type Station struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Genre string `json:"genre,omitempty"`
}

// Folder is a named, ordered collection of stations originating from one
// imported or preloaded playlist. Listeners is a cosmetic counter with no
// correctness constraints; Protected marks a folder that refuses deletion.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Stations  []Station `json:"stations"`
	Listeners int       `json:"listeners"`
	Protected bool      `json:"protected,omitempty"`
}

// Station returns the station with the given ID, or false if the folder does
// not contain it.
func (f *Folder) Station(id string) (Station, bool) {
	for _, st := range f.Stations {
		if st.ID == id {
			return st, true
		}
	}
	return Station{}, false
}

// NewID mints a fresh opaque identifier for a station or folder.
func NewID() string {
	return uuid.NewString()
}
