package schema

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"path"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
)

//go:embed contracts/*.yaml
var shipped embed.FS

// DefaultVersion is the contract version used when none is requested
const DefaultVersion = "v1"

// ContractVersion is one registered contract
type ContractVersion struct {
	Version       string            `json:"version"`
	Contract      *Contract         `json:"-"`
	Fingerprint   string            `json:"fingerprint"`
	RegisteredAt  time.Time         `json:"registered_at"`
	Compatibility CompatibilityMode `json:"compatibility"`
}

// Registry manages contract versions
type Registry struct {
	versions map[string]*ContractVersion
	order    []string
	mode     CompatibilityMode
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewRegistry creates an empty contract registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		versions: make(map[string]*ContractVersion),
		mode:     CompatibilityBackward,
		logger:   logger,
	}
}

// NewDefaultRegistry creates a registry holding every contract shipped with apimtpl
func NewDefaultRegistry(logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	entries, err := shipped.ReadDir("contracts")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to list shipped contracts")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := shipped.ReadFile(path.Join("contracts", name))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read shipped contract "+name)
		}
		if _, err := r.Register(data); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SetCompatibilityMode sets the rule new versions are checked against
func (r *Registry) SetCompatibilityMode(mode CompatibilityMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mode = mode
	r.logger.Info("compatibility mode set", zap.String("mode", string(mode)))
}

// Register parses and registers a contract document. Registering identical
// content twice returns the existing version.
func (r *Registry) Register(data []byte) (*ContractVersion, error) {
	contract, err := ParseContract(data)
	if err != nil {
		return nil, err
	}
	fingerprint := calculateFingerprint(data)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.versions[contract.Version]; ok {
		if existing.Fingerprint == fingerprint {
			r.logger.Debug("contract already registered",
				zap.String("version", existing.Version))
			return existing, nil
		}
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"contract %s is already registered with different content", contract.Version)
	}

	if len(r.order) > 0 {
		latest := r.versions[r.order[len(r.order)-1]]
		if err := CheckCompatibility(latest.Contract, contract, r.mode); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig,
				"contract "+contract.Version+" incompatible with mode "+string(r.mode))
		}
	}

	version := &ContractVersion{
		Version:       contract.Version,
		Contract:      contract,
		Fingerprint:   fingerprint,
		RegisteredAt:  time.Now(),
		Compatibility: r.mode,
	}
	r.versions[contract.Version] = version
	r.order = append(r.order, contract.Version)

	r.logger.Debug("contract registered",
		zap.String("version", version.Version),
		zap.String("fingerprint", version.Fingerprint))

	return version, nil
}

// Get returns a specific contract version
func (r *Registry) Get(version string) (*ContractVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.versions[version]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "contract version %q not found", version)
	}
	return v, nil
}

// Latest returns the most recently registered contract
func (r *Registry) Latest() (*ContractVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "no contract registered")
	}
	return r.versions[r.order[len(r.order)-1]], nil
}

// Versions returns the registered versions in registration order
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Engine returns a validation engine for version, or for the latest
// contract when version is empty.
func (r *Registry) Engine(version string) (*Engine, error) {
	var (
		v   *ContractVersion
		err error
	)
	if version == "" {
		v, err = r.Latest()
	} else {
		v, err = r.Get(version)
	}
	if err != nil {
		return nil, err
	}
	return NewEngine(v.Contract, r.logger), nil
}

// calculateFingerprint hashes the raw contract document
func calculateFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
