package normalize

import (
	"reflect"
	"testing"
)

func TestPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`/Movies/Clip.mp4`, "/movies/clip.mp4"},
		{`C:\Videos\Trip\`, "c:/videos/trip"},
		{`/Movies///`, "/movies"},
		{`/`, ""},
		{``, ""},
		{`/Movies/../Other`, "/movies/../other"},
		{`/STRASSE/Übung`, "/strasse/übung"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Path(tt.input); got != tt.expected {
				t.Errorf("Path(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		name   string
		child  string
		folder string
		want   bool
	}{
		{"direct child", "/Movies/a.mp4", "/Movies", true},
		{"nested child", "/Movies/x/y/a.mp4", "/Movies", true},
		{"folder with trailing slash", "/Movies/a.mp4", "/Movies/", true},
		{"case differs", "/movies/A.MP4", "/MOVIES", true},
		{"mixed separators", `C:\Lib\clip.mp4`, "c:/lib", true},
		{"equal paths", "/Movies", "/Movies", false},
		{"sibling sharing prefix", "/Movies2/a.mp4", "/Movies", false},
		{"unrelated", "/Shows/a.mp4", "/Movies", false},
		{"parent of folder", "/", "/Movies", false},
		{"root folder", "/Movies/a.mp4", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDescendant(tt.child, tt.folder); got != tt.want {
				t.Errorf("IsDescendant(%q, %q) = %v, want %v", tt.child, tt.folder, got, tt.want)
			}
		})
	}
}

func TestIsVideoFile(t *testing.T) {
	for _, ext := range VideoExtensions() {
		if !IsVideoFile("clip" + ext) {
			t.Errorf("IsVideoFile(clip%s) = false, want true", ext)
		}
	}

	tests := []struct {
		name string
		want bool
	}{
		{"CLIP.MKV", true},
		{"archive.mp4.part", false},
		{"notes.txt", false},
		{"subs.srt", false},
		{"noext", false},
		{`C:\Videos\trip.M2TS`, true},
		{"/dir.mp4/readme", false},
	}
	for _, tt := range tests {
		if got := IsVideoFile(tt.name); got != tt.want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"family_vacation_2020.mp4", "Family Vacation 2020"},
		{"The.Big.Trip.[1080p].(2019).mkv", "The Big Trip"},
		{"beach-day -- part 2.mov", "Beach Day Part 2"},
		{"/lib/sub/birthday.party.mp4", "Birthday Party"},
		{"[only-tags].mp4", "Only Tags"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TitleFromFilename(tt.input); got != tt.expected {
				t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTitleStem(t *testing.T) {
	if got := TitleStem(`D:\clips\My Clip.final.mp4`); got != "My Clip.final" {
		t.Errorf("TitleStem = %q", got)
	}
}

func TestSidecarPaths(t *testing.T) {
	got := SidecarPaths("/lib/show/ep1.mkv")
	want := []string{"/lib/show/ep1.srt", "/lib/show/ep1.vtt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SidecarPaths = %v, want %v", got, want)
	}
}

func TestTagName(t *testing.T) {
	if got := TagName("  road   trip \t"); got != "road trip" {
		t.Errorf("TagName = %q", got)
	}
}

func TestFoldedContains(t *testing.T) {
	if !FoldedContains("Family_VACATION.mp4", "vacation") {
		t.Error("expected case-insensitive match")
	}
	if FoldedContains("beach.mp4", "vacation") {
		t.Error("unexpected match")
	}
}

func TestFold(t *testing.T) {
	tests := []struct{ a, b string }{
		{"Été", "été"},
		{"ÜBER", "über"},
		{"Ελλάδα", "ΕΛΛΆΔΑ"},
	}
	for _, tt := range tests {
		if Fold(tt.a) != Fold(tt.b) {
			t.Errorf("Fold(%q) = %q, Fold(%q) = %q", tt.a, Fold(tt.a), tt.b, Fold(tt.b))
		}
	}
}
