// Package share encodes a single station into a shareable deep link and
// decodes it back.
package share

import (
	"encoding/base64"
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/pulse/internal/playlist"
)

// Param is the query parameter carrying the encoded station.
const Param = "signal"

type payload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Encode packs the station's name and URL into the reversible text form
// used in share links.
func Encode(st playlist.Station) string {
	b, err := json.Marshal(payload{Name: st.Name, URL: st.URL})
	if err != nil {
		// Two strings cannot fail to marshal.
		panic(err)
	}

	return base64.StdEncoding.EncodeToString(b)
}

// Link appends the encoded station to rawURL as the signal parameter.
func Link(rawURL string, st playlist.Station) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid base URL")
	}

	q := u.Query()
	q.Set(Param, Encode(st))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Decode reverses Encode. The returned station gets a fresh ID; share links
// carry no identity.
func Decode(param string) (playlist.Station, error) {
	b, err := base64.StdEncoding.DecodeString(param)
	if err != nil {
		return playlist.Station{}, errors.Wrap(err, "malformed share payload")
	}

	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return playlist.Station{}, errors.Wrap(err, "malformed share payload")
	}

	if p.URL == "" {
		return playlist.Station{}, errors.New("share payload has no stream URL")
	}

	name := p.Name
	if name == "" {
		name = playlist.FallbackStationName
	}

	return playlist.Station{
		ID:   playlist.NewID(),
		Name: name,
		URL:  p.URL,
	}, nil
}

// FromURL extracts and decodes a shared station from a full link. Decode
// failures are logged, never surfaced; a shared link that rots should not
// break opening the app.
func FromURL(rawURL string) (playlist.Station, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring malformed share link")
		return playlist.Station{}, false
	}

	param := u.Query().Get(Param)
	if param == "" {
		return playlist.Station{}, false
	}

	st, err := Decode(param)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring undecodable share link")
		return playlist.Station{}, false
	}

	return st, true
}
