package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	catalogDir string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		catalogDir: filepath.Join(base, "programs"),
		configPath: filepath.Join(base, "config.toml"),
	}

	content := fmt.Sprintf(`
[paths]
catalog_dir = %q
data_dir = %q
log_dir = %q

[[ranges]]
round_size = 0.0
start = 1000
end = 1049
label = "free range 1"

[[ranges]]
round_size = -1.0
start = 2000
end = 2049
label = "free range 2"

[[ranges]]
round_size = 7.0
start = 70000
end = 70004
label = "7 inch"
`,
		env.catalogDir,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.MkdirAll(env.catalogDir, 0o755); err != nil {
		t.Fatalf("create catalog dir: %v", err)
	}

	return env
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, "", "config", "validate", "--path", target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")
}

func TestCLIScanRegistryRename(t *testing.T) {
	env := setupCLITestEnv(t)

	programPath := filepath.Join(env.catalogDir, "o01010.nc")
	content := "o01010 (BRACKET ROUND 7.0)\nG00 X0 Z0\nG01 X1.5 Z-0.25 F0.012\nM30\n"
	if err := os.WriteFile(programPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write program file: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "1 added")

	out, _, err = runCLI(t, env.configPath, "registry", "init")
	if err != nil {
		t.Fatalf("registry init: %v", err)
	}
	requireContains(t, out, "Registry initialized")

	out, _, err = runCLI(t, env.configPath, "resolve", "o01010")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "70000")

	out, _, err = runCLI(t, env.configPath, "rename", "o01010", "--size", "7", "--reason", "range move")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	requireContains(t, out, "Renamed o01010 -> o70000")

	renamed, err := os.ReadFile(filepath.Join(env.catalogDir, "o70000.nc"))
	if err != nil {
		t.Fatalf("read renamed file: %v", err)
	}
	if !strings.HasPrefix(string(renamed), "o70000") {
		t.Fatalf("renamed file header not rewritten: %q", string(renamed[:20]))
	}
	if _, err := os.Stat(programPath); !os.IsNotExist(err) {
		t.Fatalf("expected old program file to be gone, stat err: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "registry", "next", "--size", "7")
	if err != nil {
		t.Fatalf("registry next: %v", err)
	}
	requireContains(t, out, "o70001")

	out, _, err = runCLI(t, env.configPath, "audit", "--limit", "5")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	requireContains(t, out, "o70000")
}

func TestCLIBatchSkipsSettledPrograms(t *testing.T) {
	env := setupCLITestEnv(t)

	programPath := filepath.Join(env.catalogDir, "o70000.nc")
	content := "o70000 (SHAFT ROUND 7.0)\nG00 X0 Z0\nM30\n"
	if err := os.WriteFile(programPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write program file: %v", err)
	}

	if _, _, err := runCLI(t, env.configPath, "scan"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, _, err := runCLI(t, env.configPath, "registry", "init"); err != nil {
		t.Fatalf("registry init: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "batch", "o70000", "--size", "7")
	if err != nil {
		t.Fatalf("batch dry run: %v", err)
	}
	requireContains(t, out, "Dry run")
	requireContains(t, out, "1 skipped")
}

func TestCLIStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "ok")
}
