// Package remote downloads dropped URLs into a local cache so they can be
// attached like files from disk.
package remote

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/csheth/napkin/internal/media"
)

const (
	cacheEnvVar        = "NAPKIN_CACHE_DIR"
	cacheSubdir        = "napkin/downloads"
	cacheTTL           = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 90 * time.Second
	maxDownloadBytes   = 50 << 20
)

// Cache stores downloads on disk keyed by URL. Fresh files are reused,
// stale ones are revalidated with ETag or Last-Modified, and interrupted
// downloads resume with a Range request.
type Cache struct {
	dir      string
	client   *http.Client
	maxBytes int64
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	ContentType  string    `json:"contentType"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// NewCache opens the cache in NAPKIN_CACHE_DIR or the user cache directory.
func NewCache(client *http.Client) (*Cache, error) {
	dir := os.Getenv(cacheEnvVar)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "napkin-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	return NewCacheAt(dir, client)
}

// NewCacheAt opens a cache rooted at dir.
func NewCacheAt(dir string, client *http.Client) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Cache{dir: dir, client: client, maxBytes: maxDownloadBytes}, nil
}

// Load downloads rawURL if needed and describes the cached copy. The file is
// named after the last URL path segment so notices and prompts read well.
func (c *Cache) Load(ctx context.Context, rawURL string) (media.File, error) {
	cached, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return media.File{}, err
	}
	file, err := media.Load(cached)
	if err != nil {
		return media.File{}, err
	}
	file.Name = displayName(rawURL)
	if meta, err := readMeta(cached + metaSuffix); err == nil && !media.Accepts(file.MediaType) && meta.ContentType != "" {
		file.MediaType = media.Normalize(meta.ContentType)
	}
	return file, nil
}

// Fetch returns the local path of rawURL, downloading it when the cached copy
// is missing or stale. A stale copy is served if the refresh fails.
func (c *Cache) Fetch(ctx context.Context, rawURL string) (string, error) {
	filePath, metaPath, partialPath := c.pathsFor(rawURL)

	if info, err := os.Stat(filePath); err == nil && time.Since(info.ModTime()) < cacheTTL && info.Size() > 0 {
		return filePath, nil
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(filePath)
	got, err := c.download(ctx, rawURL, filePath, metaPath, partialPath, meta, info)
	if err == nil {
		return got, nil
	}
	if info != nil && info.Size() > 0 {
		return filePath, nil
	}
	return "", err
}

func (c *Cache) download(ctx context.Context, rawURL, filePath, metaPath, partialPath string, meta cacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			_ = writeMeta(metaPath, meta)
			now := time.Now()
			_ = os.Chtimes(filePath, now, now)
			return filePath, nil
		}
		return c.download(ctx, rawURL, filePath, metaPath, partialPath, cacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, filePath, metaPath, partialPath, 0)
	case http.StatusPartialContent:
		return c.saveBody(resp, filePath, metaPath, partialPath, partialSize)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("download failed: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
}

// saveBody writes the response to the partial file, appending when resuming
// from offset, then moves it into place.
func (c *Cache) saveBody(resp *http.Response, filePath, metaPath, partialPath string, offset int64) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	limit := c.maxBytes - offset
	written, err := io.Copy(file, io.LimitReader(resp.Body, limit+1))
	if err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if written > limit {
		os.Remove(partialPath)
		return "", fmt.Errorf("%s: %w", resp.Request.URL, media.ErrTooLarge)
	}
	if err := os.Rename(partialPath, filePath); err != nil {
		return "", err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		ContentType:  resp.Header.Get("Content-Type"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(filePath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	return filePath, nil
}

// pathsFor keeps the URL's extension on the cached file so type detection
// sees it.
func (c *Cache) pathsFor(rawURL string) (string, string, string) {
	key := cacheKey(rawURL)
	filePath := filepath.Join(c.dir, key+urlExtension(rawURL))
	return filePath, filePath + metaSuffix, filePath + partialSuffix
}

func cacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func urlExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 6 || strings.ContainsAny(ext, `/\:`) {
		return ""
	}
	return ext
}

func displayName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
		if unescaped, err := url.PathUnescape(base); err == nil {
			return unescaped
		}
		return base
	}
	return u.Host
}

func readMeta(metaPath string) (cacheMeta, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(metaPath string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, data, 0o644)
}
