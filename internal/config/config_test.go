package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StoreFS, cfg.Store.Kind)
	assert.Equal(t, ".", cfg.Store.Root)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, CacheMemory, cfg.Cache.Kind)
	assert.Equal(t, "formfields:attachment:", cfg.Cache.Redis.Prefix)
	assert.Equal(t, "deviceCommandCode", cfg.Fields.GateKey)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
store:
  kind: http
  url: https://docs.example.com/api
  timeout: 3s
cache:
  kind: redis
  ttl: 1m
  redis:
    addr: cache:6379
fields:
  gateKey: commandCode
`), 0o600))

	t.Setenv("FORMFIELDS_STORE_TOKEN", "secret")
	t.Setenv("FORMFIELDS_LOG_FORMAT", "json")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, StoreHTTP, cfg.Store.Kind)
	assert.Equal(t, "https://docs.example.com/api", cfg.Store.URL)
	assert.Equal(t, "secret", cfg.Store.Token)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "commandCode", cfg.Fields.GateKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FORMFIELDS_CACHE_KIND=badger\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FORMFIELDS_CACHE_KIND") })

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, CacheBadger, cfg.Cache.Kind)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "unknown store", cfg: Config{Store: StoreConfig{Kind: "s3"}, Cache: CacheConfig{Kind: CacheMemory}}},
		{name: "fs without root", cfg: Config{Store: StoreConfig{Kind: StoreFS}, Cache: CacheConfig{Kind: CacheMemory}}},
		{name: "http without url", cfg: Config{Store: StoreConfig{Kind: StoreHTTP}, Cache: CacheConfig{Kind: CacheMemory}}},
		{name: "unknown cache", cfg: Config{Store: StoreConfig{Kind: StoreFS, Root: "."}, Cache: CacheConfig{Kind: "disk"}}},
		{name: "redis without addr", cfg: Config{Store: StoreConfig{Kind: StoreFS, Root: "."}, Cache: CacheConfig{Kind: CacheRedis}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}
}
