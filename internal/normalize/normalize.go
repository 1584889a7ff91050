// Package normalize canonicalizes paths and filenames for comparison.
//
// Paths are treated as opaque strings: no symlink resolution, no ".."
// collapsing and no OS calls. The original casing of a path is what gets
// stored; the normalized form is only used as a comparison key.
package normalize

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Path returns the comparison key for p: backslashes become forward slashes,
// trailing slashes are stripped and the result is case folded.
func Path(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimRight(p, "/")
	// Casers keep internal state, so one is created per call.
	return cases.Fold().String(p)
}

// DescendantPrefix returns the key prefix every descendant of folder carries.
func DescendantPrefix(folder string) string {
	return Path(folder) + "/"
}

// IsDescendant reports whether child lies strictly inside folder.
// Equal paths never match, and "/Movies2" is not inside "/Movies".
func IsDescendant(child, folder string) bool {
	return strings.HasPrefix(Path(child), DescendantPrefix(folder))
}

// videoExtensions is matched against the final extension only.
var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mkv": {}, ".mov": {}, ".wmv": {},
	".flv": {}, ".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {},
	".3gp": {}, ".ogv": {}, ".ts": {}, ".mts": {}, ".m2ts": {},
}

// IsVideoFile reports whether name has a video extension.
func IsVideoFile(name string) bool {
	_, ok := videoExtensions[strings.ToLower(path.Ext(baseName(name)))]
	return ok
}

// VideoExtensions returns the allowlist in a stable order.
func VideoExtensions() []string {
	return []string{
		".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm", ".m4v",
		".mpg", ".mpeg", ".3gp", ".ogv", ".ts", ".mts", ".m2ts",
	}
}

// TitleStem returns the filename without directory or extension.
// Indexed videos are seeded with this as their title.
func TitleStem(name string) string {
	base := baseName(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

var (
	bracketed  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	separators = regexp.MustCompile(`[_.\-]+`)

	bracketChars = strings.NewReplacer("[", " ", "]", " ", "(", " ", ")", " ")
)

// TitleFromFilename derives a display title for a file that is not in the
// catalog yet: bracketed and parenthesised segments are dropped, separators
// become spaces and the words are title cased.
//
//	TitleFromFilename("family_vacation_2020.mp4") == "Family Vacation 2020"
func TitleFromFilename(name string) string {
	stem := TitleStem(name)

	t := bracketed.ReplaceAllString(stem, " ")
	t = separators.ReplaceAllString(t, " ")
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		// Nothing outside the brackets; keep their contents instead.
		t = bracketChars.Replace(stem)
		t = strings.Join(strings.Fields(separators.ReplaceAllString(t, " ")), " ")
	}

	return cases.Title(language.Und).String(t)
}

// SidecarPaths returns the subtitle files that may accompany a video,
// built by swapping its extension.
func SidecarPaths(videoPath string) []string {
	ext := path.Ext(strings.ReplaceAll(videoPath, `\`, "/"))
	stem := strings.TrimSuffix(videoPath, ext)
	return []string{stem + ".srt", stem + ".vtt"}
}

// TagName trims and collapses whitespace in a user supplied tag name.
func TagName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold applies Unicode case folding, so "Été" and "ÉTÉ" compare equal.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// FoldedContains reports whether s contains term under case folding.
func FoldedContains(s, term string) bool {
	return strings.Contains(Fold(s), Fold(term))
}

func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}
