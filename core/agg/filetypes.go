package agg

import (
	"regexp"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

// DefaultCodePattern matches source files by extension.
const DefaultCodePattern = `\.bazel$|\.bazelrc$|\.bzl$|\.c$|\.cc$|\.cp$|\.cpp$|\.cxx$|\.c\+\+$|` +
	`\.go$|\.h$|\.js$|\.mjs$|\.java$|\.py$|\.rs$|\.sh$|\.tf$|\.ts$`

// DefaultBinaryPattern matches common binary artifacts, images and archives.
const DefaultBinaryPattern = `\.png$|\.jpe?g$|\.gif$|\.bmp$|\.ico$|\.webp$|\.pdf$|` +
	`\.zip$|\.gz$|\.tgz$|\.bz2$|\.xz$|\.7z$|\.tar$|\.jar$|\.war$|\.class$|` +
	`\.so$|\.dll$|\.dylib$|\.exe$|\.bin$|\.o$|\.pyc$|\.woff2?$|\.ttf$|\.otf$|\.mp3$|\.mp4$`

var (
	defaultCodeRegex   = regexp.MustCompile(DefaultCodePattern)
	defaultBinaryRegex = regexp.MustCompile(DefaultBinaryPattern)
)

// Classifier assigns a changed file to a file type bucket.
// Code is checked first, then binary; everything else is other.
type Classifier struct {
	code   *regexp.Regexp
	binary *regexp.Regexp
}

// NewClassifier builds a classifier. Nil patterns fall back to the defaults.
func NewClassifier(code, binary *regexp.Regexp) Classifier {
	if code == nil {
		code = defaultCodeRegex
	}
	if binary == nil {
		binary = defaultBinaryRegex
	}
	return Classifier{code: code, binary: binary}
}

// Classify returns the bucket of path.
func (c Classifier) Classify(path string) schema.FileType {
	switch {
	case c.code.MatchString(path):
		return schema.CodeFile
	case c.binary.MatchString(path):
		return schema.BinaryFile
	default:
		return schema.OtherFile
	}
}
