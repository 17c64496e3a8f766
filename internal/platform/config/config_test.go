package config

import "testing"

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("LEARNCODE_TEST_LIST", " alice, ,Bob ,")
	got := getEnvAsList("LEARNCODE_TEST_LIST")
	if len(got) != 2 || got[0] != "alice" || got[1] != "Bob" {
		t.Fatalf("getEnvAsList = %q", got)
	}
}

func TestGetEnvAsIntFallback(t *testing.T) {
	t.Setenv("LEARNCODE_TEST_INT", "not-a-number")
	if got := getEnvAsInt("LEARNCODE_TEST_INT", 7); got != 7 {
		t.Fatalf("getEnvAsInt = %d, want fallback 7", got)
	}
	t.Setenv("LEARNCODE_TEST_INT", "42")
	if got := getEnvAsInt("LEARNCODE_TEST_INT", 7); got != 42 {
		t.Fatalf("getEnvAsInt = %d, want 42", got)
	}
}

func TestIsAdminLogin(t *testing.T) {
	c := &Config{AdminLogins: []string{"Octocat"}}
	if !c.IsAdminLogin("octocat") {
		t.Error("admin login should match case-insensitively")
	}
	if c.IsAdminLogin("someone") {
		t.Error("unlisted login reported admin")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_LOGINS", "root")
	t.Setenv("EXECUTION_TIME_LIMIT_MS", "1500")
	Load()
	if AppConfig.ExecutionQueueName == "" || AppConfig.ExecutionLockPrefix == "" {
		t.Fatal("queue defaults missing")
	}
	if AppConfig.ExecutionTimeLimit.Milliseconds() != 1500 {
		t.Fatalf("time limit = %s", AppConfig.ExecutionTimeLimit)
	}
	if !AppConfig.IsAdminLogin("root") {
		t.Fatal("ADMIN_LOGINS not loaded")
	}
}
