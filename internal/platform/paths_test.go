package platform

import (
	"path/filepath"
	"testing"
)

func TestPathsFor(t *testing.T) {
	cases := []struct {
		name       string
		goos       string
		env        map[string]string
		cfg, data  string
		wantConfig string
		wantDB     string
	}{
		{
			name:       "linux xdg",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			cfg:        "/fallback/config",
			data:       "/fallback/data",
			wantConfig: filepath.Join("/xdg/config", "planboard", "config.toml"),
			wantDB:     filepath.Join("/xdg/data", "planboard", "planboard.db"),
		},
		{
			name:       "linux without xdg",
			goos:       "linux",
			env:        map[string]string{},
			cfg:        "/home/me/.config",
			data:       "/home/me/.local/share",
			wantConfig: filepath.Join("/home/me/.config", "planboard", "config.toml"),
			wantDB:     filepath.Join("/home/me/.local/share", "planboard", "planboard.db"),
		},
		{
			name:       "windows appdata",
			goos:       "windows",
			env:        map[string]string{"APPDATA": `C:\Roaming`, "LOCALAPPDATA": `C:\Local`},
			cfg:        `C:\fallback\config`,
			data:       `C:\fallback\data`,
			wantConfig: filepath.Join(`C:\Roaming`, "planboard", "config.toml"),
			wantDB:     filepath.Join(`C:\Local`, "planboard", "planboard.db"),
		},
		{
			name:       "darwin ignores xdg",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored"},
			cfg:        "/Users/me/Library/Application Support",
			data:       "/Users/me/Library/Application Support",
			wantConfig: filepath.Join("/Users/me/Library/Application Support", "planboard", "config.toml"),
			wantDB:     filepath.Join("/Users/me/Library/Application Support", "planboard", "planboard.db"),
		},
		{
			name:       "other os",
			goos:       "freebsd",
			cfg:        "/cfg",
			data:       "/data",
			wantConfig: filepath.Join("/cfg", "planboard", "config.toml"),
			wantDB:     filepath.Join("/data", "planboard", "planboard.db"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := PathsFor(tc.goos, tc.env, tc.cfg, tc.data, "planboard")
			if err != nil {
				t.Fatalf("PathsFor() error = %v", err)
			}
			if p.ConfigPath != tc.wantConfig {
				t.Fatalf("unexpected config path %q", p.ConfigPath)
			}
			if p.DBPath != tc.wantDB {
				t.Fatalf("unexpected db path %q", p.DBPath)
			}
			if p.ExportDir != filepath.Join(p.DataDir, "exports") {
				t.Fatalf("unexpected export dir %q", p.ExportDir)
			}
		})
	}
}

func TestPathsForRejectsEmptyInput(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "planboard"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, "/cfg", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "planboard-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DBPath) != "planboard-dev.db" {
		t.Fatalf("expected dev db name, got %q", p.DBPath)
	}
}
