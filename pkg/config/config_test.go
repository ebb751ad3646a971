package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/orchestrator"
)

const minimal = `
browser:
  entry_url: https://erp.example.com/web#action=entries
  login:
    url: https://erp.example.com/web/login
    username: ${EB_TEST_USER}
    password: ${EB_TEST_PASSWORD}
    username_selector: "#login"
    password_selector: "#password"
    submit_selector: "button[type=submit]"
  actions:
    open_fresh_entry: ["button.o_list_button_add"]
    duplicate_from_current: ["//button[contains(., 'Action')]", "//a[contains(., 'Duplicate')]"]
    commit: ["button.o_form_button_save"]
  header:
    - selector: "input[name=ref]"
      field: docket
`

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Run.MaxAttempts)
	assert.Equal(t, orchestrator.DefaultRecordDelay, cfg.Run.RecordDelay)
	assert.True(t, cfg.Run.PauseOnFailure)
	assert.Equal(t, []string{"primary", "alternative"}, cfg.Run.Strategies)
	assert.Equal(t, 1, cfg.Storage.MaxOpenConns)
}

func TestParse_Minimal(t *testing.T) {
	t.Setenv("EB_TEST_USER", "clerk")
	t.Setenv("EB_TEST_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "clerk", cfg.Browser.Login.Username)
	assert.Equal(t, "s3cret", cfg.Browser.Login.Password)
	assert.Equal(t, 20*time.Second, cfg.Browser.OverlayTimeout)
	assert.Len(t, cfg.Browser.Overlays, 3)
	assert.Equal(t, 3, cfg.Run.MaxAttempts)
	assert.True(t, cfg.Run.PauseOnFailure)
}

func TestParse_Overrides(t *testing.T) {
	data := minimal + `
log_level: debug
run:
  max_attempts: 5
  record_delay: 500ms
  pause_on_failure: false
  backoff:
    initial: 2s
  strategies: [alternative]
source:
  identity: Docket
  skip: 1
storage:
  path: ""
metrics:
  addr: ":9090"
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Run.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Run.RecordDelay)
	assert.False(t, cfg.Run.PauseOnFailure)
	assert.Equal(t, 2*time.Second, cfg.Run.Backoff.Initial)
	assert.Equal(t, 10*time.Second, cfg.Run.Backoff.Max)
	assert.Equal(t, "Docket", cfg.Source.Identity)
	assert.Equal(t, 1, cfg.Source.Skip)
	assert.Empty(t, cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)

	table, err := cfg.Run.StrategyTable()
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, core.ModeAlternative, table.First())
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte(minimal + "\nbogus: true\n"))
	assert.Error(t, err)
}

func TestParse_CollectsAllProblems(t *testing.T) {
	data := `
log_level: loud
run:
  max_attempts: 0
  record_delay: 1h
  strategies: [sideways]
source:
  identity: "   "
`
	_, err := Parse([]byte(data))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "log_level")
	assert.Contains(t, msg, "entry_url")
	assert.Contains(t, msg, "max_attempts")
	assert.Contains(t, msg, "record_delay")
	assert.Contains(t, msg, "sideways")
}

func TestStrategyTable_Duplicate(t *testing.T) {
	r := Default().Run
	r.Strategies = []string{"primary", "Primary"}
	_, err := r.StrategyTable()
	assert.ErrorIs(t, err, core.ErrUnknownMode)
}

func TestRunOptions(t *testing.T) {
	r := Default().Run
	r.MaxAttempts = 4
	r.RecordDelay = time.Second

	opts, err := r.Options()
	require.NoError(t, err)

	cfg := orchestrator.DefaultConfig()
	for _, o := range opts {
		o.ApplyOrchestrator(&cfg)
	}
	assert.Equal(t, 4, cfg.Processor.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RecordDelay)
	assert.True(t, cfg.PauseOnFailure)
	assert.Len(t, cfg.Processor.Strategies, 2)
}

func TestStoragePoolOptions(t *testing.T) {
	assert.Len(t, StorageConfig{}.PoolOptions(), 1)
	assert.Len(t, StorageConfig{MaxOpenConns: 2, ConnMaxLifetime: time.Minute}.PoolOptions(), 4)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	cfgFile := filepath.Join(dir, "entrybatch.yaml")

	require.NoError(t, os.WriteFile(envFile, []byte("EB_TEST_USER=from-dotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(cfgFile, []byte(minimal), 0o600))

	t.Setenv("EB_TEST_USER", "")
	require.NoError(t, os.Unsetenv("EB_TEST_USER"))

	cfg, err := Load(cfgFile, envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Browser.Login.Username)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "entrybatch.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(minimal), 0o600))

	_, err := Load(cfgFile, filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_MissingConfig(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}
