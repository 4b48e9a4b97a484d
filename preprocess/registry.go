// Copyright 2025 The kagent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package preprocess

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/QuantumByte-01/kagent/core"
)

// Registry maps datasource IDs to their transform configs. Lookup is
// a pure map access: datasources are added by registering config
// data, never by adding code.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*core.DatasourceConfig
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger. Default is slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		configs: make(map[string]*core.DatasourceConfig),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores a datasource config. Re-registering
// an ID replaces the previous config.
func (r *Registry) Register(config *core.DatasourceConfig) error {
	if err := core.ValidateDatasourceConfig(config); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[config.DatasourceID]; exists {
		r.logger.Warn("replacing datasource config", "datasource", config.DatasourceID)
	}
	r.configs[config.DatasourceID] = config
	return nil
}

// Resolve returns the config registered for datasourceID.
func (r *Registry) Resolve(datasourceID string) (*core.DatasourceConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	config, ok := r.configs[datasourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatasource, datasourceID)
	}
	return config, nil
}

// IDs returns the registered datasource IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadFile registers the config held in one YAML file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var config core.DatasourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := r.Register(&config); err != nil {
		return fmt.Errorf("failed to register config %s: %w", path, err)
	}
	return nil
}

// LoadDir registers every .yaml/.yml file in dir, in name order. A
// single bad file fails the load: a half-registered fleet of
// datasources is worse than none.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read config directory %s: %w", dir, err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
		loaded++
	}
	r.logger.Info("loaded datasource configs", "dir", dir, "count", loaded)
	return nil
}
