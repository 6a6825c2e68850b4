package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `yaml:"name"`
	Port  int      `yaml:"port"`
	Roots []string `yaml:"roots"`
}

type validated struct {
	Port int `yaml:"port"`
}

func (v *validated) Validate() error {
	if v.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_KeepsDefaults(t *testing.T) {
	p := writeConfig(t, "port: 9000\n")
	cfg := sample{Name: "wanderlog", Port: 8080}
	if err := Load(p, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "wanderlog" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	p := writeConfig(t, "name: ${SITE_NAME}\nroots: [\"$ROOT/a\", \"$ROOT/b\"]\n")
	env := map[string]string{"SITE_NAME": "trips", "ROOT": "/srv"}
	var cfg sample
	err := Load(p, &cfg, WithLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "trips" || strings.Join(cfg.Roots, ",") != "/srv/a,/srv/b" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "absent.yaml")

	var cfg sample
	if err := Load(p, &cfg); err == nil {
		t.Error("missing file should fail without Optional")
	}

	cfg = sample{Port: 8080}
	if err := Load(p, &cfg, Optional()); err != nil {
		t.Fatalf("Optional: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want default kept", cfg.Port)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	p := writeConfig(t, "")
	cfg := sample{Port: 1}
	if err := Load(p, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 1 {
		t.Errorf("port = %d", cfg.Port)
	}
}

func TestLoad_Strict(t *testing.T) {
	p := writeConfig(t, "port: 1\nunknown: true\n")

	var loose sample
	if err := Load(p, &loose); err != nil {
		t.Fatalf("non-strict load: %v", err)
	}
	var strict sample
	if err := Load(p, &strict, Strict()); err == nil {
		t.Error("strict load should reject unknown keys")
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeConfig(t, "port: 0\n")
	var cfg validated
	err := Load(p, &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	p := writeConfig(t, "port: [\n")
	var cfg sample
	if err := Load(p, &cfg); err == nil {
		t.Error("malformed yaml should fail")
	}
}
