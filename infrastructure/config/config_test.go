package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "canvas-backend/domain/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.HotReload)
	assert.Equal(t, time.Duration(0), cfg.Domain.FocusDelay)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsMemoryInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_BACKEND", StoreMemory)
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadDomainFile(t *testing.T) {
	dir := t.TempDir()
	base := domainconfig.DefaultDomainConfig()

	tests := []struct {
		name  string
		file  string
		body  string
		check func(t *testing.T, cfg *domainconfig.DomainConfig)
	}{
		{
			name: "yaml overlay",
			file: "canvas.yaml",
			body: "default_entity_width: 160\nfocus_delay: 25ms\n",
			check: func(t *testing.T, cfg *domainconfig.DomainConfig) {
				assert.Equal(t, 160.0, cfg.DefaultEntityWidth)
				assert.Equal(t, 25*time.Millisecond, cfg.FocusDelay)
				assert.Equal(t, base.DefaultEntityHeight, cfg.DefaultEntityHeight)
			},
		},
		{
			name: "toml overlay",
			file: "canvas.toml",
			body: "significant_move_threshold = 3.5\nmax_tags_per_entity = 5\n",
			check: func(t *testing.T, cfg *domainconfig.DomainConfig) {
				assert.Equal(t, 3.5, cfg.SignificantMoveThreshold)
				assert.Equal(t, 5, cfg.MaxTagsPerEntity)
			},
		},
		{
			name: "empty yaml keeps base",
			file: "empty.yml",
			body: "",
			check: func(t *testing.T, cfg *domainconfig.DomainConfig) {
				assert.Equal(t, *base, *cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadDomainFile(writeFile(t, dir, tt.file, tt.body), base)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}

	assert.Equal(t, 120.0, base.DefaultEntityWidth, "base must not be modified")
}

func TestLoadDomainFileErrors(t *testing.T) {
	dir := t.TempDir()
	base := domainconfig.DefaultDomainConfig()

	_, err := LoadDomainFile(writeFile(t, dir, "canvas.json", "{}"), base)
	assert.Error(t, err)

	_, err = LoadDomainFile(writeFile(t, dir, "bad.yaml", "default_entity_width: -5\n"), base)
	assert.Error(t, err)

	_, err = LoadDomainFile(filepath.Join(dir, "missing.toml"), base)
	assert.Error(t, err)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	base := domainconfig.DefaultDomainConfig()
	path := writeFile(t, dir, "canvas.yaml", "canvas_width: 1600\n")
	initial, err := LoadDomainFile(path, base)
	require.NoError(t, err)

	w, err := NewWatcher(path, base, initial, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var width atomic.Value
	w.OnChange(func(cfg *domainconfig.DomainConfig) { width.Store(cfg.CanvasWidth) })

	writeFile(t, dir, "canvas.yaml", "canvas_width: 2000\n")
	assert.Eventually(t, func() bool {
		v, ok := width.Load().(float64)
		return ok && v == 2000
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2000.0, w.Current().CanvasWidth)
}
