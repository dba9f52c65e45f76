package util

import (
	"errors"
	"net/url"
	"strings"
)

var ErrNoFilename = errors.New("cannot extract valid filename")

const maxFilenameLength = 120

// SanitizeFilename strips characters that are unsafe in filenames on common
// filesystems and caps the length.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', '"', '<', '>', '|', ':':
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	return name
}

// FilenameFromURL extracts the last path element of a URL as a usable
// filename, or ErrNoFilename if the URL has no such element.
func FilenameFromURL(u *url.URL) (string, error) {
	if u == nil {
		return "", ErrNoFilename
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "", ErrNoFilename
	}
	elements := strings.Split(path, "/")
	filename := SanitizeFilename(elements[len(elements)-1])
	if filename == "" {
		return "", ErrNoFilename
	}
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(filename, ".", "") == "" {
		return "", ErrNoFilename
	}
	return filename, nil
}

// FilenameFromURLString is FilenameFromURL for unparsed URLs.
func FilenameFromURLString(s string) (string, error) {
	parsed, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	return FilenameFromURL(parsed)
}
