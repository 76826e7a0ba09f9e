package models

// Project track keys. The four tracks are fixed reference data; the keys
// appear in campaign mappings, bot payloads and lead classification.
const (
	TrackMamad        = "mamad"
	TrackPrivateHome  = "private_home"
	TrackRenovation   = "renovation"
	TrackArchitecture = "architecture"
)

// DefaultTrack is the fallback classification when a campaign name is
// missing or matches no mapping rule.
const DefaultTrack = TrackRenovation

// KnownTracks contains all known project track keys.
var KnownTracks = []string{TrackMamad, TrackPrivateHome, TrackRenovation, TrackArchitecture}

// IsKnownTrack reports whether key is one of the four catalog tracks.
func IsKnownTrack(key string) bool {
	for _, t := range KnownTracks {
		if t == key {
			return true
		}
	}
	return false
}

// ProjectType is one entry in the fixed project track catalog.
type ProjectType struct {
	ID            int16  `json:"id"`
	Key           string `json:"key"`
	DisplayNameHe string `json:"display_name_he"`
	IsActive      bool   `json:"is_active"`
}
