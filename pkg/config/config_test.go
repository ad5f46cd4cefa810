package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formpipe/pkg/config"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.Options{LookupEnv: envMap(nil)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "formpipe.yaml", `
api:
  base_url: https://yaml.example.com
  timeout: 3s
server:
  addr: ":9000"
log:
  level: warn
`)
	dotenv := writeFile(t, dir, ".env", "API_URL=https://dotenv.example.com\nFORMPIPE_SERVER_ADDR=:9100\n")

	cfg, err := config.Load(config.Options{
		File:    file,
		EnvFile: dotenv,
		LookupEnv: envMap(map[string]string{
			"FORMPIPE_API_URL":   "https://env.example.com",
			"FORMPIPE_LOG_LEVEL": "DEBUG",
		}),
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := struct {
		URL     string
		Timeout time.Duration
		Addr    string
		Level   string
	}{cfg.API.BaseURL, cfg.API.Timeout, cfg.Server.Addr, cfg.Log.Level}
	want := struct {
		URL     string
		Timeout time.Duration
		Addr    string
		Level   string
	}{"https://env.example.com", 3 * time.Second, ":9100", "debug"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("precedence mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingEnvFileIsSkipped(t *testing.T) {
	_, err := config.Load(config.Options{
		EnvFile:   filepath.Join(t.TempDir(), "absent.env"),
		LookupEnv: envMap(nil),
	})
	if err != nil {
		t.Fatalf("missing dotenv should be ignored: %v", err)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	_, err := config.Load(config.Options{LookupEnv: envMap(map[string]string{
		"FORMPIPE_API_URL":   "not a url",
		"FORMPIPE_LOG_LEVEL": "loud",
	})})
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, key := range []string{"api.base_url", "log.level"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := config.Load(config.Options{LookupEnv: envMap(map[string]string{
		"FORMPIPE_API_TIMEOUT": "soon",
	})})
	if err == nil || !strings.Contains(err.Error(), "FORMPIPE_API_TIMEOUT") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestLog_NewLogger(t *testing.T) {
	logger, err := config.Log{Level: "debug", Development: true}.NewLogger()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level should be enabled")
	}
}
