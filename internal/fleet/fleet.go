package fleet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/ingest"
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/KaramelBytes/fleetrisk-cli/internal/utils"
)

const fleetFileName = "fleet.json"

// ErrNotFound indicates no fleet.json exists for the requested fleet.
var ErrNotFound = errors.New("fleet not found")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidateName rejects fleet names that are unsafe as directory names.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid fleet name %q: use letters, digits, '.', '_' or '-' (max 64)", name)
	}
	return nil
}

// Fleet is a named set of machines persisted on disk.
type Fleet struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	BatchID     string           `json:"batch_id,omitempty"`
	Source      string           `json:"source,omitempty"`
	Format      string           `json:"format,omitempty"`
	UploadedAt  *time.Time       `json:"uploaded_at,omitempty"`
	Machines    []machine.Scored `json:"machines"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// Not serialized: on-disk location of the fleet.json
	rootDir string `json:"-"`
}

// New constructs an in-memory fleet. Call Save() to persist.
func New(name, description, rootDir string) *Fleet {
	now := time.Now()
	return &Fleet{
		Name:        name,
		Description: description,
		Machines:    []machine.Scored{},
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads fleet.json from dir.
func Load(dir string) (*Fleet, error) {
	path := filepath.Join(dir, fleetFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("read fleet: %w", err)
	}
	var f Fleet
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fleet: %w", err)
	}
	f.rootDir = dir
	return &f, nil
}

// Exists reports whether dir holds a fleet.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, fleetFileName))
	return err == nil
}

// RootDir returns the on-disk fleet directory path.
func (f *Fleet) RootDir() string { return f.rootDir }

// Save writes fleet.json using atomic write.
func (f *Fleet) Save() error {
	if f.rootDir == "" {
		return errors.New("fleet root directory not set")
	}
	if err := utils.EnsureDir(f.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	f.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(f)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(f.rootDir, fleetFileName), data)
}

// Replace swaps the fleet's machines for those of b. Earlier machines are dropped,
// not merged.
func (f *Fleet) Replace(b *ingest.Batch) {
	f.BatchID = b.ID
	f.Source = b.Source
	f.Format = b.Format
	at := b.CreatedAt
	f.UploadedAt = &at
	f.Machines = b.Machines
	f.UpdatedAt = time.Now()
}

// Filter returns machines at the given level, or all machines for an empty level.
func (f *Fleet) Filter(level machine.RiskLevel) []machine.Scored {
	if level == "" {
		return f.Machines
	}
	out := make([]machine.Scored, 0, len(f.Machines))
	for _, m := range f.Machines {
		if m.RiskLevel == level {
			out = append(out, m)
		}
	}
	return out
}

// Store resolves fleets under a root directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("fleets directory is required")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure fleets dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory of a named fleet.
func (s *Store) Dir(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// Create initializes a new, empty fleet. It refuses to overwrite an existing one.
func (s *Store) Create(name, description string) (*Fleet, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		if Exists(dir) {
			return nil, fmt.Errorf("fleet already exists at %s", dir)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("inspect fleet directory: %w", err)
		}
		if len(entries) > 0 {
			return nil, fmt.Errorf("directory %s already exists and is not empty; refusing to initialize fleet", dir)
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat fleet directory: %w", err)
	}
	f := New(name, description, dir)
	if err := f.Save(); err != nil {
		return nil, err
	}
	return f, nil
}

// Open loads a named fleet.
func (s *Store) Open(name string) (*Fleet, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return nil, err
	}
	return Load(dir)
}

// OpenOrCreate loads a named fleet, creating an empty one if it does not exist.
func (s *Store) OpenOrCreate(name string) (*Fleet, error) {
	f, err := s.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	dir, _ := s.Dir(name)
	return New(name, "", dir), nil
}

// Upload replaces a fleet's machines with b and persists it.
func (s *Store) Upload(name string, b *ingest.Batch) (*Fleet, error) {
	f, err := s.OpenOrCreate(name)
	if err != nil {
		return nil, err
	}
	f.Replace(b)
	if err := f.Save(); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns the names of all fleets in the store, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read fleets dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if Exists(filepath.Join(s.root, e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
