package cover

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"coverart/internal/filesystem"
	"coverart/internal/media"
	"coverart/internal/metrics"

	"github.com/dustin/go-humanize"
)

// DefaultPreferredNames are the file stems ranked ahead of any other image
// found next to a track.
var DefaultPreferredNames = []string{"cover", "front"}

// Candidate is an image file found while scanning a directory. Lower ranks
// are preferred.
type Candidate struct {
	Name string
	Path string
	Rank int
}

// Scanner finds cover image files in a directory.
type Scanner struct {
	preferred   []string
	maxFileSize int64
	retry       filesystem.RetryConfig
}

// NewScanner creates a Scanner ranking files by the given preferred stems
// (compared case-insensitively) and skipping files larger than maxFileSize.
// A maxFileSize of zero or less disables the size limit.
func NewScanner(preferred []string, maxFileSize int64) *Scanner {
	return &Scanner{
		preferred:   normalizeNames(preferred),
		maxFileSize: maxFileSize,
		retry:       filesystem.DefaultRetryConfig(),
	}
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Scan lists the image files directly inside dir, ordered by rank and then
// by file name. extraPreferred names rank ahead of the configured ones. An
// unreadable directory yields no candidates.
func (s *Scanner) Scan(dir string, extraPreferred ...string) []Candidate {
	entries, err := filesystem.ReadDirWithRetry(dir, s.retry)
	if err != nil {
		log.Warn("Cannot list directory '%s': %v", dir, err)
		return nil
	}

	names := append(normalizeNames(extraPreferred), s.preferred...)

	var candidates []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !media.IsImageFile(name) {
			continue
		}

		path := filepath.Join(dir, name)
		size, ok := s.regularFileSize(entry, path)
		if !ok {
			continue
		}
		if s.maxFileSize > 0 && size > s.maxFileSize {
			log.Info("Cover file '%s' is too big (%s), limit is %s",
				path, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(s.maxFileSize)))
			metrics.CoverSourceTooLarge.Inc()
			continue
		}

		candidates = append(candidates, Candidate{
			Name: name,
			Path: path,
			Rank: rank(name, names),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Rank != candidates[j].Rank {
			return candidates[i].Rank < candidates[j].Rank
		}
		return candidates[i].Name < candidates[j].Name
	})

	metrics.CoverCandidatesScanned.Observe(float64(len(candidates)))
	return candidates
}

// Best returns the path of the most preferred candidate in dir.
func (s *Scanner) Best(dir string, extraPreferred ...string) (string, bool) {
	candidates := s.Scan(dir, extraPreferred...)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].Path, true
}

// regularFileSize returns the size of a regular file, following symlinks.
func (s *Scanner) regularFileSize(entry fs.DirEntry, path string) (int64, bool) {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := filesystem.StatWithRetry(path, s.retry)
		if err != nil || !info.Mode().IsRegular() {
			return 0, false
		}
		return info.Size(), true
	}
	if !entry.Type().IsRegular() {
		return 0, false
	}
	info, err := entry.Info()
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func rank(name string, preferred []string) int {
	stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	for i, p := range preferred {
		if stem == p {
			return i
		}
	}
	return len(preferred)
}
