package service

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File name conventions preserved from the desktop app so its outputs
// and ours stay interchangeable:
//
//	vocal_take_<timestamp>_omotiv.wav        recorded takes
//	<base>-no_<instrument>-omotiv<ext>       stem-removal backing tracks
const (
	takePrefix   = "vocal_take_"
	takeSuffix   = "_omotiv.wav"
	stemMarker   = "-no_"
	omotivMarker = "-omotiv"
)

// StemRemovalFileName builds the canonical name for a backing track
// with the given instruments removed, e.g. "song-no_vocals-omotiv.wav".
func StemRemovalFileName(base string, removed []string, ext string) string {
	if ext == "" {
		ext = ".wav"
	}
	return fmt.Sprintf("%s%s%s%s%s", base, stemMarker, strings.Join(removed, "-"), omotivMarker, ext)
}

// MixFileName builds the export name for a take mixed over a backing
// track, derived from the backing track's base name.
func MixFileName(backingPath string) string {
	base := strings.TrimSuffix(filepath.Base(backingPath), filepath.Ext(backingPath))
	return base + "-mix" + omotivMarker + ".wav"
}

// IsTakeFile reports whether name follows the recorded-take convention.
func IsTakeFile(name string) bool {
	return strings.HasPrefix(name, takePrefix) && strings.HasSuffix(name, takeSuffix)
}

// ParseStemRemoval extracts the removed instruments from a stem-removal
// file name. Returns nil when the name does not follow the convention.
func ParseStemRemoval(name string) []string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasSuffix(base, omotivMarker) {
		return nil
	}
	base = strings.TrimSuffix(base, omotivMarker)

	idx := strings.LastIndex(base, stemMarker)
	if idx < 0 {
		return nil
	}
	removed := base[idx+len(stemMarker):]
	if removed == "" {
		return nil
	}
	return strings.Split(removed, "-")
}

// cleanFileName sanitizes a user-supplied name for use in a file name.
// Allows: letters, numbers, spaces, hyphens, underscores.
func cleanFileName(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' || r == '-' || r == '_' {
			result.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(result.String()), " ", "_")
}
