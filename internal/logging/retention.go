package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// LogFileName is the active daemon log inside the log directory.
	LogFileName = "salesmind.log"

	archivePrefix = "salesmind-"
	archiveSuffix = ".log"
	archiveLayout = "20060102-150405"
)

// Rotation reports what PrepareLogDir did.
type Rotation struct {
	Archived string
	Pruned   []string
	Failed   map[string]error
}

// PrepareLogDir moves the previous run's log aside as a timestamped archive
// and removes archives older than retentionDays. A retentionDays value of 0
// keeps every archive.
func PrepareLogDir(dir string, retentionDays int, now time.Time) (Rotation, error) {
	var result Rotation
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("create log dir: %w", err)
	}

	active := filepath.Join(dir, LogFileName)
	if info, err := os.Stat(active); err == nil && info.Size() > 0 {
		target := filepath.Join(dir, archivePrefix+info.ModTime().Format(archiveLayout)+archiveSuffix)
		if _, statErr := os.Stat(target); statErr == nil {
			target = filepath.Join(dir, fmt.Sprintf("%s%s-%d%s", archivePrefix, info.ModTime().Format(archiveLayout), now.UnixNano(), archiveSuffix))
		}
		if err := os.Rename(active, target); err != nil {
			return result, fmt.Errorf("archive log: %w", err)
		}
		result.Archived = target
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("stat log: %w", err)
	}

	if retentionDays <= 0 {
		return result, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	for _, path := range archives(dir) {
		if path == result.Archived {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]error)
			}
			result.Failed[path] = err
			continue
		}
		result.Pruned = append(result.Pruned, path)
	}
	return result, nil
}

// Archives lists rotated log files in dir, oldest name first.
func Archives(dir string) []string {
	return archives(dir)
}

func archives(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == LogFileName {
			continue
		}
		if strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, archiveSuffix) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out
}
