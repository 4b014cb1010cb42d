package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultBudget is the default size budget for the recommended subset.
const DefaultBudget int64 = 100 * 1024 * 1024

// ErrNotFound is returned when the archive path does not exist.
var ErrNotFound = errors.New("archive not found")

type Category string

const (
	CategoryProfile  Category = "profile"
	CategoryFriends  Category = "friends"
	CategoryPosts    Category = "posts"
	CategoryMessages Category = "messages"
	CategoryMedia    Category = "media"
	CategoryOther    Category = "other"
)

// Priority is the order categories are considered in, both for
// classification and for the recommended subset.
var Priority = []Category{
	CategoryProfile,
	CategoryFriends,
	CategoryPosts,
	CategoryMessages,
	CategoryMedia,
}

var categoryMarkers = []struct {
	category Category
	markers  []string
}{
	{CategoryProfile, []string{"demographic", "profile", "about_you", "personal_information"}},
	{CategoryFriends, []string{"friend"}},
	{CategoryPosts, []string{"post", "timeline", "wall", "status_update"}},
	{CategoryMessages, []string{"message", "inbox"}},
	{CategoryMedia, []string{"photo", "video", "media", "album"}},
}

var mediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
	".mp4": true, ".mov": true, ".avi": true, ".webm": true, ".m4v": true,
}

// Categorize assigns a file name to a content category. Names without any
// marker fall back to media when they carry a photo or video extension.
func Categorize(name string) Category {
	lower := strings.ToLower(name)
	for _, c := range categoryMarkers {
		for _, marker := range c.markers {
			if strings.Contains(lower, marker) {
				return c.category
			}
		}
	}
	if mediaExtensions[path.Ext(lower)] {
		return CategoryMedia
	}
	return CategoryOther
}

// FileInfo describes one file inside an archive.
type FileInfo struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Category Category `json:"category"`
}

// ExcludedFile is a file skipped by the exclusion filter.
type ExcludedFile struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"`
}

// Inventory is the result of scanning an archive.
type Inventory struct {
	Root       string                  `json:"root"`
	IsZip      bool                    `json:"is_zip"`
	Files      []FileInfo              `json:"files"`
	Excluded   []ExcludedFile          `json:"excluded"`
	ByCategory map[Category][]FileInfo `json:"by_category"`
	TotalSize  int64                   `json:"total_size"`
}

// Recommendation is the subset of files worth parsing first.
type Recommendation struct {
	Files     []FileInfo `json:"files"`
	TotalSize int64      `json:"total_size"`
	Budget    int64      `json:"budget"`
}

// Scanner inventories export archives.
type Scanner struct {
	budget int64
}

// NewScanner creates a scanner with the given recommendation budget in bytes.
// A non-positive budget selects DefaultBudget.
func NewScanner(budget int64) *Scanner {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Scanner{budget: budget}
}

// Budget returns the recommendation budget in bytes.
func (s *Scanner) Budget() int64 {
	return s.budget
}

// Scan inventories a zip archive or a directory.
func (s *Scanner) Scan(archivePath string) (*Inventory, error) {
	stat, err := os.Stat(archivePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, archivePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	inv := &Inventory{
		Root:       archivePath,
		ByCategory: make(map[Category][]FileInfo),
	}

	if stat.IsDir() {
		err = s.scanDir(archivePath, inv)
	} else {
		inv.IsZip = true
		err = s.scanZip(archivePath, inv)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(inv.Files, func(i, j int) bool { return inv.Files[i].Path < inv.Files[j].Path })
	sort.Slice(inv.Excluded, func(i, j int) bool { return inv.Excluded[i].Path < inv.Excluded[j].Path })
	for _, f := range inv.Files {
		inv.ByCategory[f.Category] = append(inv.ByCategory[f.Category], f)
	}

	return inv, nil
}

func (s *Scanner) scanDir(root string, inv *Inventory) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		inv.add(filepath.ToSlash(rel), info.Size())
		return nil
	})
}

func (s *Scanner) scanZip(archivePath string, inv *Inventory) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		inv.add(file.Name, int64(file.UncompressedSize64))
	}
	return nil
}

func (inv *Inventory) add(relPath string, size int64) {
	name := path.Base(relPath)
	inv.TotalSize += size

	if reason, excluded := ExclusionReason(name); excluded {
		inv.Excluded = append(inv.Excluded, ExcludedFile{Name: name, Path: relPath, Size: size, Reason: reason})
		return
	}

	inv.Files = append(inv.Files, FileInfo{
		Name:     name,
		Path:     relPath,
		Size:     size,
		Category: Categorize(name),
	})
}

// Recommend greedily picks files in category priority order until the budget
// would be exceeded or 80% of it is used.
func (s *Scanner) Recommend(inv *Inventory) Recommendation {
	rec := Recommendation{Budget: s.budget}
	threshold := s.budget * 8 / 10

	for _, category := range Priority {
		for _, f := range inv.ByCategory[category] {
			if rec.TotalSize >= threshold {
				return rec
			}
			if rec.TotalSize+f.Size > s.budget {
				continue
			}
			rec.Files = append(rec.Files, f)
			rec.TotalSize += f.Size
		}
	}
	return rec
}
