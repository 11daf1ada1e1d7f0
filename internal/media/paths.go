package media

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoPaths is returned by LoadDropped when the text holds no file paths.
var ErrNoPaths = errors.New("no file paths in dropped text")

// ParseDroppedPaths splits text pasted by a terminal after a file drop into
// paths. Terminals quote paths with single or double quotes, escape spaces with
// backslashes, or emit file:// URIs; all three forms are understood.
func ParseDroppedPaths(text string) []string {
	var (
		paths   []string
		current strings.Builder
		quote   rune
		escaped bool
		pending bool
	)
	flush := func() {
		if !pending {
			return
		}
		if p := cleanDroppedPath(current.String()); p != "" {
			paths = append(paths, p)
		}
		current.Reset()
		pending = false
	}
	for _, r := range text {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			if r == '\\' && quote == '"' {
				escaped = true
				continue
			}
			current.WriteRune(r)
		case r == '\\':
			escaped = true
			pending = true
		case r == '\'' || r == '"':
			quote = r
			pending = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()
	return paths
}

func cleanDroppedPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "file://") {
		u, err := url.Parse(raw)
		if err != nil || u.Path == "" {
			return ""
		}
		raw = u.Path
	}
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	return raw
}

// LoadDropped interprets text as a drop payload. It succeeds only when every
// parsed path is an existing regular file, so ordinary pasted prose is never
// mistaken for a drop. Files are returned in payload order and are not
// type-checked.
func LoadDropped(text string) ([]File, error) {
	paths := ParseDroppedPaths(text)
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// DroppedURL reports whether text is a single http or https URL, the form a
// browser image or link takes when dragged into a terminal.
func DroppedURL(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) != 1 {
		return "", false
	}
	raw := strings.Trim(fields[0], `'"`)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
