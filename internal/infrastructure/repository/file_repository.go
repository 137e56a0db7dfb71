package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/ports"
)

// fileDocument is the on-disk layout: one keyed document with three
// top-level maps, shop domain as key in each. OAuth states are not part of
// the persisted layout; they are short-lived and held in memory.
type fileDocument struct {
	Installations map[string]*fileInstallation `json:"installations"`
	Configs       map[string]*fileWidgetConfig `json:"whatsapp_configs"`
	Analytics     map[string]*fileAnalytics    `json:"analytics"`
}

// fileInstallation persists the access token, which the domain entity
// deliberately excludes from JSON.
type fileInstallation struct {
	Shop        string    `json:"shop"`
	AccessToken string    `json:"access_token"`
	InstalledAt time.Time `json:"installed_at"`
}

type fileWidgetConfig struct {
	Shop           string    `json:"shop"`
	PhoneNumber    string    `json:"phone_number"`
	InitialMessage string    `json:"initial_message"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type fileAnalytics struct {
	Shop         string     `json:"shop"`
	WidgetClicks int64      `json:"widget_clicks"`
	FirstClick   *time.Time `json:"first_click"`
	LastClick    *time.Time `json:"last_click"`
}

// FileRepository implements Repository and StateRepository on a single
// durable JSON file. A mutex serializes mutations, which trivially
// satisfies the per-tenant serialization guarantee; every mutation is
// flushed before it returns.
type FileRepository struct {
	mu     sync.Mutex
	path   string
	doc    fileDocument
	states map[string]*domain.OAuthState
	logger zerolog.Logger
}

// NewFileRepository opens (or creates) the store under dataDir.
func NewFileRepository(dataDir string, logger zerolog.Logger) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", domain.ErrPersistence, err)
	}

	r := &FileRepository{
		path: filepath.Join(dataDir, "app_data.json"),
		doc: fileDocument{
			Installations: make(map[string]*fileInstallation),
			Configs:       make(map[string]*fileWidgetConfig),
			Analytics:     make(map[string]*fileAnalytics),
		},
		states: make(map[string]*domain.OAuthState),
		logger: logger,
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, r.path, err)
	}
	if err := json.Unmarshal(raw, &r.doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrPersistence, r.path, err)
	}
	// Guard against a truncated or hand-edited document.
	if r.doc.Installations == nil {
		r.doc.Installations = make(map[string]*fileInstallation)
	}
	if r.doc.Configs == nil {
		r.doc.Configs = make(map[string]*fileWidgetConfig)
	}
	if r.doc.Analytics == nil {
		r.doc.Analytics = make(map[string]*fileAnalytics)
	}

	return r, nil
}

// flush writes the document atomically: temp file in the same directory,
// then rename. Caller holds the mutex.
func (r *FileRepository) flush() error {
	raw, err := json.MarshalIndent(&r.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".app_data-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", domain.ErrPersistence, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write temp: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close temp: %v", domain.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: rename: %v", domain.ErrPersistence, err)
	}
	return nil
}

// SaveInstallation creates or overwrites the installation for a shop.
func (r *FileRepository) SaveInstallation(_ context.Context, inst *domain.Installation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc.Installations[inst.Shop] = &fileInstallation{
		Shop:        inst.Shop,
		AccessToken: inst.AccessToken,
		InstalledAt: inst.InstalledAt,
	}
	return r.flush()
}

// GetInstallation returns (nil, nil) when the shop is not installed.
func (r *FileRepository) GetInstallation(_ context.Context, shop string) (*domain.Installation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.doc.Installations[shop]
	if !ok {
		return nil, nil
	}
	return &domain.Installation{
		Shop:        doc.Shop,
		AccessToken: doc.AccessToken,
		InstalledAt: doc.InstalledAt,
	}, nil
}

// DeleteInstallation removes the installation and cascade-deletes the
// shop's widget config and analytics. Deleting an absent shop is a no-op
// success, which keeps at-least-once uninstall deliveries safe.
func (r *FileRepository) DeleteInstallation(_ context.Context, shop string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.doc.Installations[shop]
	delete(r.doc.Installations, shop)
	delete(r.doc.Configs, shop)
	delete(r.doc.Analytics, shop)
	if !existed {
		return nil
	}
	return r.flush()
}

// SaveWidgetConfig stores the config, enforcing that an installation
// exists for the shop.
func (r *FileRepository) SaveWidgetConfig(_ context.Context, cfg *domain.WidgetConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doc.Installations[cfg.Shop]; !ok {
		return domain.ErrUnknownTenant
	}
	r.doc.Configs[cfg.Shop] = &fileWidgetConfig{
		Shop:           cfg.Shop,
		PhoneNumber:    cfg.PhoneNumber,
		InitialMessage: cfg.InitialMessage,
		UpdatedAt:      cfg.UpdatedAt,
	}
	return r.flush()
}

// GetWidgetConfig returns (nil, nil) when the shop has no config.
func (r *FileRepository) GetWidgetConfig(_ context.Context, shop string) (*domain.WidgetConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.doc.Configs[shop]
	if !ok {
		return nil, nil
	}
	return &domain.WidgetConfig{
		Shop:           doc.Shop,
		PhoneNumber:    doc.PhoneNumber,
		InitialMessage: doc.InitialMessage,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// IncrementWidgetClick atomically bumps the click counter, stamping
// first/last click times.
func (r *FileRepository) IncrementWidgetClick(_ context.Context, shop string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doc.Installations[shop]; !ok {
		return domain.ErrUnknownTenant
	}

	rec, ok := r.doc.Analytics[shop]
	if !ok {
		rec = &fileAnalytics{Shop: shop}
		r.doc.Analytics[shop] = rec
	}
	now := time.Now().UTC()
	rec.WidgetClicks++
	if rec.FirstClick == nil {
		first := now
		rec.FirstClick = &first
	}
	last := now
	rec.LastClick = &last
	return r.flush()
}

// GetAnalytics returns (nil, nil) when no clicks have been recorded.
func (r *FileRepository) GetAnalytics(_ context.Context, shop string) (*domain.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.doc.Analytics[shop]
	if !ok {
		return nil, nil
	}
	return &domain.Analytics{
		Shop:         doc.Shop,
		WidgetClicks: doc.WidgetClicks,
		FirstClick:   doc.FirstClick,
		LastClick:    doc.LastClick,
	}, nil
}

// SaveState stores an OAuth state in memory, pruning expired entries.
func (r *FileRepository) SaveState(_ context.Context, state *domain.OAuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for nonce, s := range r.states {
		if s.Expired(now) {
			delete(r.states, nonce)
		}
	}
	r.states[state.Nonce] = state
	return nil
}

// ConsumeState atomically fetches and deletes the state for nonce.
// Expired or absent states return (nil, nil).
func (r *FileRepository) ConsumeState(_ context.Context, nonce string) (*domain.OAuthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[nonce]
	if !ok {
		return nil, nil
	}
	delete(r.states, nonce)
	if state.Expired(time.Now()) {
		return nil, nil
	}
	return state, nil
}

// Close flushes the document a final time.
func (r *FileRepository) Close(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

var (
	_ ports.Repository      = (*FileRepository)(nil)
	_ ports.StateRepository = (*FileRepository)(nil)
)
