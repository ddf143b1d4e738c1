package service

import (
	"reflect"
	"testing"
)

func TestStemRemovalFileName(t *testing.T) {
	got := StemRemovalFileName("song", []string{"vocals"}, ".wav")
	if got != "song-no_vocals-omotiv.wav" {
		t.Errorf("StemRemovalFileName = %q; want song-no_vocals-omotiv.wav", got)
	}

	got = StemRemovalFileName("track", []string{"vocals", "drums"}, ".flac")
	if got != "track-no_vocals-drums-omotiv.flac" {
		t.Errorf("StemRemovalFileName = %q; want track-no_vocals-drums-omotiv.flac", got)
	}

	// Missing extension defaults to WAV.
	got = StemRemovalFileName("x", []string{"bass"}, "")
	if got != "x-no_bass-omotiv.wav" {
		t.Errorf("StemRemovalFileName = %q; want x-no_bass-omotiv.wav", got)
	}
}

func TestParseStemRemoval(t *testing.T) {
	cases := []struct {
		name string
		want []string
	}{
		{"song-no_vocals-omotiv.wav", []string{"vocals"}},
		{"track-no_vocals-drums-omotiv.flac", []string{"vocals", "drums"}},
		{"plain_song.wav", nil},
		{"song-omotiv.wav", nil},
		{"song-no_-omotiv.wav", nil},
	}

	for _, tc := range cases {
		got := ParseStemRemoval(tc.name)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseStemRemoval(%q) = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestMixFileName(t *testing.T) {
	got := MixFileName("/music/song-no_vocals-omotiv.flac")
	if got != "song-no_vocals-omotiv-mix-omotiv.wav" {
		t.Errorf("MixFileName = %q", got)
	}

	got = MixFileName("backing.wav")
	if got != "backing-mix-omotiv.wav" {
		t.Errorf("MixFileName = %q; want backing-mix-omotiv.wav", got)
	}
}

func TestIsTakeFile(t *testing.T) {
	if !IsTakeFile("vocal_take_1700000000_omotiv.wav") {
		t.Error("canonical take name not recognized")
	}
	if IsTakeFile("random.wav") {
		t.Error("random file recognized as take")
	}
	if IsTakeFile("vocal_take_1700000000_omotiv.flac") {
		t.Error("non-WAV file recognized as take")
	}
}

func TestCleanFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Song", "My_Song"},
		{"a/b\\c:d", "abcd"},
		{"  trimmed  ", "trimmed"},
		{"keep-these_chars 123", "keep-these_chars_123"},
	}

	for _, tc := range cases {
		if got := cleanFileName(tc.in); got != tc.want {
			t.Errorf("cleanFileName(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
