package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"learncode/internal/testutil"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, cfg.BaseURL, DefaultBaseURL)
	testutil.AssertEqual(t, cfg.Timeout, DefaultTimeout)
	testutil.AssertEqual(t, cfg.CallbackAddr, DefaultCallbackAddr)
	testutil.AssertEqual(t, cfg.LoginTimeout, DefaultLoginTimeout)
	testutil.AssertEqual(t, cfg.PollMaxAttempts, 0)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learncode.yaml")
	data := []byte("baseURL: https://learn.example.com\ntimeout: 3s\npollMaxAttempts: 120\ndebug: true\n")
	testutil.MustNoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, cfg.BaseURL, "https://learn.example.com")
	testutil.AssertEqual(t, cfg.Timeout, 3*time.Second)
	testutil.AssertEqual(t, cfg.PollMaxAttempts, 120)
	testutil.AssertTrue(t, cfg.Debug, "debug flag parsed")
	testutil.AssertEqual(t, cfg.LoginTimeout, DefaultLoginTimeout)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	testutil.MustNoError(t, os.WriteFile(path, []byte("timeout: [not a duration"), 0o600))
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyDefaultsKeepsCredentialPath(t *testing.T) {
	cfg := Config{CredentialPath: "/tmp/mine.json", PollMaxAttempts: -4}
	ApplyDefaults(&cfg, "/tmp/default.json")
	testutil.AssertEqual(t, cfg.CredentialPath, "/tmp/mine.json")
	testutil.AssertEqual(t, cfg.PollMaxAttempts, 0)

	cfg = Config{}
	ApplyDefaults(&cfg, "/tmp/default.json")
	testutil.AssertEqual(t, cfg.CredentialPath, "/tmp/default.json")
}
