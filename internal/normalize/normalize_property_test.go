package normalize

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var segment = rapid.StringMatching(`[a-zA-Z0-9 _.-]{1,8}`)

func TestIsDescendant_MatchesPrefixRule(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		child := rapid.StringMatching(`[a-zA-Z0-9_\-./\\]{0,40}`).Draw(t, "child")
		folder := rapid.StringMatching(`[a-zA-Z0-9_\-./\\]{0,20}`).Draw(t, "folder")

		want := strings.HasPrefix(Path(child), Path(folder)+"/")
		if got := IsDescendant(child, folder); got != want {
			t.Fatalf("IsDescendant(%q, %q) = %v, want %v", child, folder, got, want)
		}
	})
}

func TestIsDescendant_EqualPathsNeverMatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := "/" + segment.Draw(t, "a") + "/" + segment.Draw(t, "b")
		if IsDescendant(p, p) {
			t.Fatalf("IsDescendant(%q, %q) = true", p, p)
		}
	})
}

func TestIsDescendant_SiblingPrefixNeverMatches(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		folder := "/" + segment.Draw(t, "folder")
		suffix := rapid.StringMatching(`[a-zA-Z0-9]{1,4}`).Draw(t, "suffix")
		file := segment.Draw(t, "file")

		sibling := folder + suffix + "/" + file
		if IsDescendant(sibling, folder) {
			t.Fatalf("IsDescendant(%q, %q) = true", sibling, folder)
		}
		if !IsDescendant(folder+"/"+file, folder) {
			t.Fatalf("IsDescendant(%q, %q) = false", folder+"/"+file, folder)
		}
	})
}
