// Package state owns the station library: folders imported from playlists,
// the favorites set, and the browse/playback cursor. All mutation goes
// through the Store, which writes both snapshots back to its Storage on
// every change.
package state

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/pulse/internal/playlist"
)

// FavoritesFolderID identifies the synthetic pseudo-folder that exposes the
// favorites set through the same Folder shape as the real library.
const FavoritesFolderID = "favorites"

// ErrProtectedFolder is returned when deleting a folder that refuses
// deletion.
var ErrProtectedFolder = errors.New("folder is protected")

// Store is the library store. It is not safe for concurrent use; all
// mutation is expected to happen on the UI's single event loop.
type Store struct {
	storage Storage

	folders   []playlist.Folder
	favorites []playlist.Station

	selectedFolderID string
	favoritesView    bool

	current    playlist.Station
	hasCurrent bool
	loading    bool
	playing    bool

	// playGen tags each play attempt so a slow completion for an abandoned
	// station cannot overwrite the state of a later one.
	playGen uint64
}

// NewStore creates a store backed by the given storage. Call Hydrate before
// anything else.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Hydrate loads the persisted library and favorites snapshots. Missing
// entries leave the collections empty; corrupt entries are logged and
// treated as empty rather than aborting startup.
func (s *Store) Hydrate() {
	s.folders = nil
	s.favorites = nil

	loadSnapshot(s.storage, LibraryKey, &s.folders)
	loadSnapshot(s.storage, FavoritesKey, &s.favorites)

	for i := range s.folders {
		normalizeFolder(&s.folders[i])
	}
}

func loadSnapshot(storage Storage, key string, v interface{}) {
	b, err := storage.Load(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("failed to load snapshot")
		}
		return
	}

	if err := json.Unmarshal(b, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ignoring corrupt snapshot")
	}
}

// normalizeFolder defaults fields that older snapshots may lack instead of
// failing on them.
func normalizeFolder(f *playlist.Folder) {
	if f.ID == "" {
		f.ID = playlist.NewID()
	}
	if f.Stations == nil {
		f.Stations = []playlist.Station{}
	}
	for i := range f.Stations {
		if f.Stations[i].ID == "" {
			f.Stations[i].ID = playlist.NewID()
		}
	}
}

// persist writes both snapshots through the storage. A write failure is
// logged and otherwise ignored; the in-memory state stays authoritative for
// the session.
func (s *Store) persist() {
	if err := s.saveSnapshots(); err != nil {
		log.Warn().Err(err).Msg("failed to persist library")
	}
}

func (s *Store) saveSnapshots() error {
	lib, err := json.Marshal(s.folders)
	if err != nil {
		return errors.Wrap(err, "failed to marshal library")
	}

	fav, err := json.Marshal(s.favorites)
	if err != nil {
		return errors.Wrap(err, "failed to marshal favorites")
	}

	if err := s.storage.Save(LibraryKey, lib); err != nil {
		return err
	}

	return s.storage.Save(FavoritesKey, fav)
}

// Folders returns the library in order. The slice is owned by the store.
func (s *Store) Folders() []playlist.Folder {
	return s.folders
}

// Favorites returns the favorites set in insertion order.
func (s *Store) Favorites() []playlist.Station {
	return s.favorites
}

// ImportFolder parses playlist content and appends the resulting folder to
// the library, empty or not. Deletion is one keypress away; silently
// dropping an import would be more surprising than an empty folder.
func (s *Store) ImportFolder(content, fileName string) playlist.Folder {
	f := playlist.Parse(content, fileName)
	f.Listeners = seedListeners(importSeed)

	s.folders = append(s.folders, f)
	s.persist()

	return f
}

// DeleteFolder removes the folder with the given ID. Deleting an unknown ID
// is a no-op; deleting a protected folder is refused. If the removed folder
// was being browsed, the selection is cleared.
func (s *Store) DeleteFolder(id string) error {
	for i, f := range s.folders {
		if f.ID != id {
			continue
		}

		if f.Protected {
			return ErrProtectedFolder
		}

		s.folders = append(s.folders[:i], s.folders[i+1:]...)

		if s.selectedFolderID == id {
			s.ClearSelection()
		}

		s.persist()
		return nil
	}

	return nil
}

// DeleteStation removes a station from a folder. Unknown IDs are no-ops.
func (s *Store) DeleteStation(folderID, stationID string) {
	for i := range s.folders {
		if s.folders[i].ID != folderID {
			continue
		}

		stations := s.folders[i].Stations
		for j, st := range stations {
			if st.ID == stationID {
				s.folders[i].Stations = append(stations[:j], stations[j+1:]...)
				s.persist()
				return
			}
		}

		return
	}
}

// ToggleFavorite adds a copy of the station to the favorites set, or removes
// it if a station with the same ID is already favorited. Favorites hold
// copies, not references, so they survive deletion of the source folder.
func (s *Store) ToggleFavorite(st playlist.Station) {
	for i, fav := range s.favorites {
		if fav.ID == st.ID {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			s.persist()
			return
		}
	}

	s.favorites = append(s.favorites, st)
	s.persist()
}

// IsFavorite reports whether a station ID is in the favorites set.
func (s *Store) IsFavorite(id string) bool {
	for _, fav := range s.favorites {
		if fav.ID == id {
			return true
		}
	}
	return false
}

// SelectFolder makes the folder with the given ID the one being browsed.
// Passing FavoritesFolderID selects the favorites pseudo-folder.
func (s *Store) SelectFolder(id string) bool {
	if id == FavoritesFolderID {
		s.SelectFavorites()
		return true
	}

	for _, f := range s.folders {
		if f.ID == id {
			s.selectedFolderID = id
			s.favoritesView = false
			return true
		}
	}

	return false
}

// SelectFavorites selects the favorites pseudo-folder.
func (s *Store) SelectFavorites() {
	s.selectedFolderID = FavoritesFolderID
	s.favoritesView = true
}

// ClearSelection returns the cursor to the library root.
func (s *Store) ClearSelection() {
	s.selectedFolderID = ""
	s.favoritesView = false
}

// SelectedFolder resolves the current selection against live store state, so
// deletions show up immediately rather than through a stale copy. The
// favorites view is synthesized on the fly.
func (s *Store) SelectedFolder() (playlist.Folder, bool) {
	if s.favoritesView {
		return playlist.Folder{
			ID:       FavoritesFolderID,
			Name:     "FAVORITES",
			Stations: s.favorites,
		}, true
	}

	if s.selectedFolderID == "" {
		return playlist.Folder{}, false
	}

	for _, f := range s.folders {
		if f.ID == s.selectedFolderID {
			return f, true
		}
	}

	return playlist.Folder{}, false
}

// PlayStation makes the station the current one and marks it loading. The
// returned generation must be handed back through ConfirmPlaying or
// FailPlayback when the transport resolves; at most one station is current,
// and only the latest attempt may update playback state.
func (s *Store) PlayStation(st playlist.Station) uint64 {
	s.playGen++
	s.current = st
	s.hasCurrent = true
	s.loading = true
	s.playing = false
	return s.playGen
}

// ConfirmPlaying flips the current station from loading to playing. It
// reports false and changes nothing if gen is not the latest play attempt.
func (s *Store) ConfirmPlaying(gen uint64) bool {
	if gen != s.playGen {
		return false
	}

	s.loading = false
	s.playing = true
	return true
}

// FailPlayback resets the loading and playing flags after a transport error.
// A stale generation is discarded so an abandoned attempt cannot clobber the
// station that superseded it.
func (s *Store) FailPlayback(gen uint64) bool {
	if gen != s.playGen {
		return false
	}

	s.loading = false
	s.playing = false
	return true
}

// SetPlaying records a pause or resume reported by the transport.
func (s *Store) SetPlaying(playing bool) {
	if s.hasCurrent && !s.loading {
		s.playing = playing
	}
}

// Stop clears the current station.
func (s *Store) Stop() {
	s.current = playlist.Station{}
	s.hasCurrent = false
	s.loading = false
	s.playing = false
}

// CurrentStation returns the station loaded into the transport, if any.
func (s *Store) CurrentStation() (playlist.Station, bool) {
	return s.current, s.hasCurrent
}

// IsPlaying reports whether the current station is audibly playing.
func (s *Store) IsPlaying() bool { return s.playing }

// IsLoading reports whether a play attempt is still in flight.
func (s *Store) IsLoading() bool { return s.loading }
