package archive

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

const defaultParseConcurrency = 4

// canonicalKeys is where array-rooted files land in the merged document.
var canonicalKeys = map[Category]string{
	CategoryProfile:  "profile",
	CategoryFriends:  "friends",
	CategoryPosts:    "posts",
	CategoryMessages: "messages",
	CategoryMedia:    "media",
}

// MediaInfo describes a media file found in the archive.
type MediaInfo struct {
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Payload is the merged content of an archive.
type Payload struct {
	Document map[string]any
	Media    map[string]MediaInfo
	Parsed   []string
	Skipped  []string
}

// LookupMedia finds a media file by its archive-relative uri. Archives that
// wrap everything in a top-level folder are matched by suffix.
func (p *Payload) LookupMedia(uri string) (int64, string, bool) {
	if p == nil || uri == "" {
		return 0, "", false
	}
	uri = strings.TrimPrefix(uri, "/")
	if info, ok := p.Media[uri]; ok {
		return info.Size, info.ContentType, true
	}
	for key, info := range p.Media {
		if strings.HasSuffix(key, "/"+uri) {
			return info.Size, info.ContentType, true
		}
	}
	return 0, "", false
}

// Loader reads an archive into a single merged JSON document.
type Loader struct {
	scanner     *Scanner
	concurrency int
}

// NewLoader creates a loader backed by the given scanner.
func NewLoader(scanner *Scanner) *Loader {
	return &Loader{scanner: scanner, concurrency: defaultParseConcurrency}
}

type parsedFile struct {
	file  FileInfo
	value any
	err   error
}

// Load scans the archive, parses every included JSON file and merges them.
func (l *Loader) Load(ctx context.Context, archivePath string) (*Payload, error) {
	inv, err := l.scanner.Scan(archivePath)
	if err != nil {
		return nil, err
	}

	src, err := openSource(inv)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ordered := orderedFiles(inv)
	results := make([]parsedFile, len(ordered))

	var mu sync.Mutex
	media := make(map[string]MediaInfo)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(l.concurrency)

	for i, f := range ordered {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if isJSON(f.Name) {
				value, err := readJSON(src, f.Path)
				results[i] = parsedFile{file: f, value: value, err: err}
				return nil
			}
			if f.Category == CategoryMedia {
				contentType := sniffContentType(src, f.Path)
				mu.Lock()
				media[f.Path] = MediaInfo{Size: f.Size, ContentType: contentType}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	payload := &Payload{
		Document: make(map[string]any),
		Media:    media,
	}

	for _, r := range results {
		if !isJSON(r.file.Name) {
			continue
		}
		if r.err != nil {
			log.Printf("[ARCHIVE] Skipping %s: %v", r.file.Path, r.err)
			payload.Skipped = append(payload.Skipped, r.file.Path)
			continue
		}
		merge(payload.Document, r.file.Category, r.value)
		payload.Parsed = append(payload.Parsed, r.file.Path)
	}

	log.Printf("[ARCHIVE] Loaded %d JSON files (%d skipped, %d media files) from %s",
		len(payload.Parsed), len(payload.Skipped), len(payload.Media), archivePath)

	return payload, nil
}

// orderedFiles returns the included files in category priority order,
// with "other" last. Within a category files keep path order.
func orderedFiles(inv *Inventory) []FileInfo {
	out := make([]FileInfo, 0, len(inv.Files))
	for _, category := range Priority {
		out = append(out, inv.ByCategory[category]...)
	}
	return append(out, inv.ByCategory[CategoryOther]...)
}

func merge(doc map[string]any, category Category, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, incoming := range v {
			existing, ok := doc[key]
			if !ok {
				doc[key] = incoming
				continue
			}
			existingArr, okA := existing.([]any)
			incomingArr, okB := incoming.([]any)
			if okA && okB {
				doc[key] = append(existingArr, incomingArr...)
			}
		}
	case []any:
		key, ok := canonicalKeys[category]
		if !ok {
			return
		}
		if existing, ok := doc[key].([]any); ok {
			doc[key] = append(existing, v...)
			return
		}
		doc[key] = v
	}
}

func isJSON(name string) bool {
	return strings.EqualFold(path.Ext(name), ".json")
}

func readJSON(src source, relPath string) (any, error) {
	rc, err := src.Open(relPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var value any
	if err := json.NewDecoder(rc).Decode(&value); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return value, nil
}

func sniffContentType(src source, relPath string) string {
	rc, err := src.Open(relPath)
	if err != nil {
		return "application/octet-stream"
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}

// source opens files by archive-relative path.
type source interface {
	Open(relPath string) (io.ReadCloser, error)
	Close() error
}

func openSource(inv *Inventory) (source, error) {
	if !inv.IsZip {
		return dirSource{root: inv.Root}, nil
	}
	reader, err := zip.OpenReader(inv.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}
	return &zipSource{reader: reader, files: files}, nil
}

type dirSource struct {
	root string
}

func (d dirSource) Open(relPath string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.root, filepath.FromSlash(relPath)))
}

func (d dirSource) Close() error {
	return nil
}

type zipSource struct {
	reader *zip.ReadCloser
	files  map[string]*zip.File
}

func (z *zipSource) Open(relPath string) (io.ReadCloser, error) {
	f, ok := z.files[relPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", relPath, os.ErrNotExist)
	}
	return f.Open()
}

func (z *zipSource) Close() error {
	return z.reader.Close()
}
