package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"

	"github.com/dopejs/staticenv/internal/envvar"
)

// ProductionID is the id of the environment seeded into a new store.
const ProductionID = "production"

var (
	// ErrEnvironmentNotFound is returned for unknown environment ids.
	ErrEnvironmentNotFound = errors.New("environment not found")
	// ErrProductionLocked is returned when deleting the production environment.
	ErrProductionLocked = errors.New("the production environment cannot be deleted")
	// ErrReadOnly is returned by writers that honour settings.read_only.
	ErrReadOnly = errors.New("variables are read-only")
)

// now is replaced in tests.
var now = time.Now

// --- Path helpers ---

// ConfigDirPath returns ~/.staticenv
func ConfigDirPath() string {
	return filepath.Join(os.Getenv("HOME"), ConfigDir)
}

// ConfigFilePath returns ~/.staticenv/staticenv.json
func ConfigFilePath() string {
	return filepath.Join(ConfigDirPath(), ConfigFile)
}

// LogPath returns ~/.staticenv/staticenv.log
func LogPath() string {
	return filepath.Join(ConfigDirPath(), LogFile)
}

// --- Store ---

// Store manages reading and writing the site JSON document.
type Store struct {
	mu      sync.Mutex
	path    string
	config  *SiteConfig
	modTime time.Time // last known modification time of config file
}

var (
	defaultStore *Store
	defaultMu    sync.Mutex
)

// NewStore returns a store backed by path. Nothing is read until first use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the global Store singleton.
// On first call it loads from disk. On subsequent calls, it checks if the
// config file has been modified and reloads if necessary.
func DefaultStore() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		defaultStore = &Store{path: ConfigFilePath()}
		defaultStore.Load()
	} else {
		if info, err := os.Stat(defaultStore.path); err == nil {
			if info.ModTime().After(defaultStore.modTime) {
				defaultStore.Load()
			}
		}
	}
	return defaultStore
}

// ResetDefaultStore clears the singleton so the next DefaultStore() call
// re-initializes. Intended for tests.
func ResetDefaultStore() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// --- Environment operations ---

// ListEnvironments returns all environments, production first, then by
// creation time.
func (s *Store) ListEnvironments() []envvar.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfModified()
	s.ensureConfig()
	envs := make([]envvar.Environment, 0, len(s.config.Environments))
	for id, ec := range s.config.Environments {
		envs = append(envs, ec.Environment(id))
	}
	sort.Slice(envs, func(i, j int) bool {
		if envs[i].IsProduction() != envs[j].IsProduction() {
			return envs[i].IsProduction()
		}
		if !envs[i].CreatedAt.Equal(envs[j].CreatedAt) {
			return envs[i].CreatedAt.Before(envs[j].CreatedAt)
		}
		return envs[i].ID < envs[j].ID
	})
	return envs
}

// GetEnvironment returns the environment with the given id.
func (s *Store) GetEnvironment(id string) (envvar.Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return envvar.Environment{}, err
	}
	s.ensureConfig()
	ec, ok := s.config.Environments[id]
	if !ok {
		return envvar.Environment{}, errors.Wrapf(ErrEnvironmentNotFound, "id %q", id)
	}
	return ec.Environment(id), nil
}

// AddEnvironment registers a preview environment and saves. A fresh id is
// assigned when env.ID is empty.
func (s *Store) AddEnvironment(env envvar.Environment) (envvar.Environment, error) {
	if strings.TrimSpace(env.BuildID) == "" {
		return envvar.Environment{}, fmt.Errorf("build id is required")
	}
	if env.IsProduction() {
		return envvar.Environment{}, fmt.Errorf("build id %q is reserved for production", envvar.ProductionBuildID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return envvar.Environment{}, err
	}
	s.ensureConfig()

	for id, ec := range s.config.Environments {
		if ec.BuildID == env.BuildID {
			return envvar.Environment{}, fmt.Errorf("build %q already exists as environment %s", env.BuildID, id)
		}
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if _, exists := s.config.Environments[env.ID]; exists {
		return envvar.Environment{}, fmt.Errorf("environment %q already exists", env.ID)
	}

	ts := now().UTC()
	ec := &EnvironmentConfig{
		BuildID:          env.BuildID,
		SourceBranch:     env.SourceBranch,
		PullRequestTitle: env.PullRequestTitle,
		Hostname:         env.Hostname,
		HasFunctions:     env.HasFunctions,
		CreatedAt:        ts,
		UpdatedAt:        ts,
		Variables:        map[string]string{},
	}
	s.config.Environments[env.ID] = ec
	if err := s.saveLocked(); err != nil {
		return envvar.Environment{}, err
	}
	return ec.Environment(env.ID), nil
}

// DeleteEnvironment removes an environment and its variables.
func (s *Store) DeleteEnvironment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return err
	}
	s.ensureConfig()
	ec, ok := s.config.Environments[id]
	if !ok {
		return errors.Wrapf(ErrEnvironmentNotFound, "id %q", id)
	}
	if ec.BuildID == envvar.ProductionBuildID {
		return ErrProductionLocked
	}
	delete(s.config.Environments, id)
	return s.saveLocked()
}

// --- Variable operations ---

// GetVariables returns a copy of an environment's variables.
func (s *Store) GetVariables(id string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return nil, err
	}
	s.ensureConfig()
	ec, ok := s.config.Environments[id]
	if !ok {
		return nil, errors.Wrapf(ErrEnvironmentNotFound, "id %q", id)
	}
	out := make(map[string]string, len(ec.Variables))
	for k, v := range ec.Variables {
		out[k] = v
	}
	return out, nil
}

// SetVariables replaces an environment's variables and saves.
func (s *Store) SetVariables(id string, vars map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return err
	}
	s.ensureConfig()
	ec, ok := s.config.Environments[id]
	if !ok {
		return errors.Wrapf(ErrEnvironmentNotFound, "id %q", id)
	}
	next := make(map[string]string, len(vars))
	for k, v := range vars {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("variable name cannot be empty")
		}
		next[k] = v
	}
	ec.Variables = next
	ec.UpdatedAt = now().UTC()
	return s.saveLocked()
}

// SetVariable creates or updates one variable. An existing variable whose
// name differs only in case is replaced.
func (s *Store) SetVariable(id, name, value string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("variable name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return err
	}
	s.ensureConfig()
	ec, ok := s.config.Environments[id]
	if !ok {
		return errors.Wrapf(ErrEnvironmentNotFound, "id %q", id)
	}
	removeFold(ec.Variables, name)
	ec.Variables[name] = value
	ec.UpdatedAt = now().UTC()
	return s.saveLocked()
}

// UnsetVariable removes a variable, matching the name without case.
// It reports whether anything was removed.
func (s *Store) UnsetVariable(id, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return false, err
	}
	s.ensureConfig()
	ec, ok := s.config.Environments[id]
	if !ok {
		return false, errors.Wrapf(ErrEnvironmentNotFound, "id %q", id)
	}
	if !removeFold(ec.Variables, name) {
		return false, nil
	}
	ec.UpdatedAt = now().UTC()
	return true, s.saveLocked()
}

// --- Global Settings ---

// GetWebPort returns the configured web API port.
// Returns DefaultWebPort if not set.
func (s *Store) GetWebPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfModified()
	if s.config == nil || s.config.Settings.WebPort == 0 {
		return DefaultWebPort
	}
	return s.config.Settings.WebPort
}

// SetWebPort sets the web API port.
func (s *Store) SetWebPort(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return err
	}
	s.ensureConfig()
	s.config.Settings.WebPort = port
	return s.saveLocked()
}

// ReadOnly reports whether edits are disabled.
func (s *Store) ReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfModified()
	return s.config != nil && s.config.Settings.ReadOnly
}

// SetReadOnly enables or disables edits.
func (s *Store) SetReadOnly(ro bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return err
	}
	s.ensureConfig()
	s.config.Settings.ReadOnly = ro
	return s.saveLocked()
}

// --- I/O ---

// reloadIfModified checks if the config file has been modified since last load
// and reloads if necessary. Must be called with s.mu held.
// A failed reload leaves the previous document in memory and is returned so
// writers refuse to save it over the newer file.
func (s *Store) reloadIfModified() error {
	if info, err := os.Stat(s.path); err == nil {
		if info.ModTime().After(s.modTime) {
			return s.loadLocked()
		}
	}
	return nil
}

// loadLocked is the internal load implementation. Must be called with s.mu held.
func (s *Store) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err == nil {
		var cfg SiteConfig
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return errors.Wrapf(err, "failed to parse %s", s.path)
		}

		if cfg.Version == 0 {
			cfg.Version = CurrentConfigVersion
		} else if cfg.Version > CurrentConfigVersion {
			return fmt.Errorf("config version %d is newer than supported version %d, please upgrade staticenv",
				cfg.Version, CurrentConfigVersion)
		}

		s.config = &cfg
		s.ensureConfig()
		if info, statErr := os.Stat(s.path); statErr == nil {
			s.modTime = info.ModTime()
		}
		return nil
	}

	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s", s.path)
	}

	// Nothing exists yet; start with just production.
	s.config = nil
	s.ensureConfig()
	s.modTime = time.Time{}
	return nil
}

// Load reads the JSON document from disk. If the file doesn't exist, an
// in-memory document holding only the production environment is created.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save writes the document to disk atomically (temp + rename), with 0600 permissions.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	s.ensureConfig()
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config dir")
	}

	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "staticenv-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to rename config file")
	}
	if info, statErr := os.Stat(s.path); statErr == nil {
		s.modTime = info.ModTime()
	}
	return nil
}

// Reload re-reads the document from disk.
func (s *Store) Reload() error {
	return s.Load()
}

// ensureConfig makes sure s.config is non-nil, has initialized maps and a
// production environment.
func (s *Store) ensureConfig() {
	if s.config == nil {
		s.config = &SiteConfig{Version: CurrentConfigVersion}
	}
	if s.config.Environments == nil {
		s.config.Environments = make(map[string]*EnvironmentConfig)
	}
	hasProduction := false
	for _, ec := range s.config.Environments {
		if ec.Variables == nil {
			ec.Variables = make(map[string]string)
		}
		if ec.BuildID == envvar.ProductionBuildID {
			hasProduction = true
		}
	}
	if !hasProduction {
		ts := now().UTC()
		s.config.Environments[ProductionID] = &EnvironmentConfig{
			BuildID:      envvar.ProductionBuildID,
			SourceBranch: "main",
			HasFunctions: true,
			CreatedAt:    ts,
			UpdatedAt:    ts,
			Variables:    make(map[string]string),
		}
	}
	if s.config.Version == 0 {
		s.config.Version = CurrentConfigVersion
	}
}

// --- helpers ---

func removeFold(m map[string]string, name string) bool {
	removed := false
	for k := range m {
		if strings.EqualFold(k, name) {
			delete(m, k)
			removed = true
		}
	}
	return removed
}
