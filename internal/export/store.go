package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store defines the interface for saved export files.
type Store interface {
	Save(name string, recordCount int, r io.Reader) (*models.ExportInfo, error)
	Get(id string) (*models.ExportInfo, error)
	List(limit int) ([]*models.ExportInfo, error)
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu        sync.RWMutex
	exportDir string
	files     map[string]*models.ExportInfo
}

// NewLocalStore creates a new LocalStore and reloads exports saved by earlier runs.
func NewLocalStore(exportDir string) (*LocalStore, error) {
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	s := &LocalStore{
		exportDir: exportDir,
		files:     make(map[string]*models.ExportInfo),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load rebuilds the index from the metadata sidecars. Entries whose CSV is gone are skipped.
func (s *LocalStore) load() error {
	metas, err := filepath.Glob(filepath.Join(s.exportDir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing export metadata: %w", err)
	}

	for _, meta := range metas {
		data, err := os.ReadFile(meta)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filepath.Base(meta), err)
		}
		var info models.ExportInfo
		if err := json.Unmarshal(data, &info); err != nil || info.ID == "" {
			log.Warnf("[Exports] Skipping unreadable metadata %s", filepath.Base(meta))
			continue
		}
		if _, err := os.Stat(s.csvPath(info.ID)); err != nil {
			log.Warnf("[Exports] Skipping %s: CSV missing", info.ID)
			continue
		}
		s.files[info.ID] = &info
	}

	if len(s.files) > 0 {
		log.Infof("[Exports] Loaded %d saved export(s) from %s", len(s.files), s.exportDir)
	}
	return nil
}

func (s *LocalStore) csvPath(id string) string {
	return filepath.Join(s.exportDir, id+".csv")
}

func (s *LocalStore) metaPath(id string) string {
	return filepath.Join(s.exportDir, id+".json")
}

// Save writes an export to the local filesystem.
func (s *LocalStore) Save(name string, recordCount int, r io.Reader) (*models.ExportInfo, error) {
	id := uuid.New().String()
	path := s.csvPath(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.ExportInfo{
		ID:          id,
		Name:        name,
		Size:        size,
		RecordCount: recordCount,
		CreatedAt:   time.Now(),
	}

	if err := writeMeta(s.metaPath(id), info); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	return info, nil
}

// Get retrieves export metadata by ID.
func (s *LocalStore) Get(id string) (*models.ExportInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("export not found: %s", id)
	}

	return info, nil
}

// List returns the most recent exports.
func (s *LocalStore) List(limit int) ([]*models.ExportInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ExportInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// GetFilePath returns the absolute path to an export.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", fmt.Errorf("export not found: %s", id)
	}

	return s.csvPath(id), nil
}

func writeMeta(path string, info *models.ExportInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding export metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("writing export metadata: %w", err)
	}
	return nil
}
