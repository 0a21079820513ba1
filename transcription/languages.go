package transcription

import (
	"path"
	"sort"
	"strings"
)

// languageCodes maps accepted language names to ISO-639-1 codes.
var languageCodes = map[string]string{
	"spanish": "es",
	"english": "en",
	"french":  "fr",
	"german":  "de",
	"italian": "it",
}

// Languages returns the accepted language names, sorted.
func Languages() []string {
	out := make([]string, 0, len(languageCodes))
	for name := range languageCodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NormalizeLanguage lowercases and trims name.
func NormalizeLanguage(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LanguageCode returns the ISO-639-1 code for an accepted language name.
func LanguageCode(name string) (string, bool) {
	code, ok := languageCodes[NormalizeLanguage(name)]
	return code, ok
}

var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "audio/mp4",
	".m4a":  "audio/m4a",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// ContentTypeFor derives the audio MIME type from a file name's extension.
// Unknown extensions are sent as audio/mpeg.
func ContentTypeFor(fileName string) string {
	if ct, ok := audioContentTypes[strings.ToLower(path.Ext(fileName))]; ok {
		return ct
	}
	return "audio/mpeg"
}
