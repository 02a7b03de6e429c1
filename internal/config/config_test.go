package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestLoad(t *testing.T) {
	_, path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
project:
  extensions: [".bpmn", ".form"]
  watch: true
indexer:
  workers: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if len(cfg.Project.Extensions) != 2 || cfg.Project.Extensions[1] != ".form" {
		t.Errorf("extensions = %v", cfg.Project.Extensions)
	}
	if !cfg.Project.Watch || cfg.Indexer.Workers != 3 {
		t.Errorf("project/indexer = %+v / %+v", cfg.Project, cfg.Indexer)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	_, path := writeConfig(t, "debug: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	_, path := writeConfig(t, "server: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir, path := writeConfig(t, `
storage:
  database_path: "./data/index.db"
project:
  root: "./models"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "index.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "models"); cfg.Project.Root != want {
		t.Errorf("project root = %s, want %s", cfg.Project.Root, want)
	}
	if want := filepath.Join(dir, ".modelindex", "bleve"); cfg.Storage.BleveIndexPath != want {
		t.Errorf("default bleve path = %s, want %s", cfg.Storage.BleveIndexPath, want)
	}
}

func TestLoad_relativeConfigPathGivesAbsolutePaths(t *testing.T) {
	dir, _ := writeConfig(t, "project:\n  root: .\nstorage:\n  database_path: ./index.db\n")
	t.Chdir(dir)
	cfg, err := Load(DefaultFileName)
	if err != nil {
		t.Fatal(err)
	}
	for name, got := range map[string]string{"project root": cfg.Project.Root, "database_path": cfg.Storage.DatabasePath} {
		if !filepath.IsAbs(got) {
			t.Errorf("%s = %q, want an absolute path", name, got)
		}
	}
	want, _ := filepath.EvalSymlinks(dir)
	if got, _ := filepath.EvalSymlinks(cfg.Project.Root); got != want {
		t.Errorf("project root = %s, want %s", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{".", "/cfg"},
		{"./x/y", "/cfg/x/y"},
		{"rel/z", filepath.Join(home, "rel/z")},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in, "/cfg"); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Project.Root != "." {
		t.Errorf("default root: got %q", cfg.Project.Root)
	}
	if cfg.Project.MaxFileSize != 10<<20 {
		t.Errorf("default max_file_size: got %d", cfg.Project.MaxFileSize)
	}
	if !cfg.Project.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
	if cfg.Project.Extensions != nil {
		t.Errorf("extensions should stay unset so processors decide: %v", cfg.Project.Extensions)
	}
	if len(cfg.Project.Ignore) == 0 {
		t.Error("ignore should have defaults")
	}
	if cfg.Indexer.Workers != 0 || cfg.Indexer.CacheSize != 4096 {
		t.Errorf("indexer defaults: %+v", cfg.Indexer)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	f := false
	cfg := &Config{Project: ProjectConfig{Recursive: &f, Ignore: []string{}}}
	ApplyDefaults(cfg)
	if cfg.Project.RecursiveOrDefault() {
		t.Error("explicit recursive=false must be kept")
	}
	if len(cfg.Project.Ignore) != 0 {
		t.Errorf("explicit empty ignore list must be kept: %v", cfg.Project.Ignore)
	}
}

func TestProjectConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		p := &ProjectConfig{}
		if got := p.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		p := &ProjectConfig{Recursive: &f}
		if got := p.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default("/work")
	if cfg.Project.Root != "/work" {
		t.Errorf("root = %q, want /work", cfg.Project.Root)
	}
	if cfg.Storage.DatabasePath != filepath.Join("/work", ".modelindex", "index.db") {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Project: ProjectConfig{Extensions: []string{".dmn"}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Storage.DatabasePath != "/tmp/db" {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Project.Extensions) != 1 || loaded.Project.Extensions[0] != ".dmn" {
		t.Errorf("extensions = %v", loaded.Project.Extensions)
	}
}

func TestLoad_searchSection(t *testing.T) {
	_, path := writeConfig(t, `
search:
  max_limit: 20
  auto_fuzzy: false
  ranking:
    id_weight: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.MaxLimit != 20 || cfg.Search.DefaultLimit != 10 || cfg.Search.TopKCandidates != 50 {
		t.Errorf("search limits = %+v", cfg.Search)
	}
	if cfg.Search.AutoFuzzyOrDefault() {
		t.Error("explicit auto_fuzzy=false must be kept")
	}
	if cfg.Search.Ranking.IDWeight != 3 || cfg.Search.Ranking.ExactIDScore != 100 {
		t.Errorf("ranking = %+v", cfg.Search.Ranking)
	}
}

func TestSearchConfig_AutoFuzzyOrDefault(t *testing.T) {
	var s SearchConfig
	if !s.AutoFuzzyOrDefault() {
		t.Error("auto fuzzy should default to true")
	}
}
