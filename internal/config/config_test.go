package config

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unsupported db type",
			mutate:  func(c *Config) { c.Database.Type = "oracle" },
			wantErr: true,
		},
		{
			name:    "zero failure threshold",
			mutate:  func(c *Config) { c.Monitoring.FailureThreshold = 0 },
			wantErr: true,
		},
		{
			name:    "zero worker pool",
			mutate:  func(c *Config) { c.Monitoring.WorkerPoolSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadFromEnv()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("Validate() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFileFallsBackWhenMissing(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile() unexpected error: %v", err)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("expected env default sqlite, got %q", cfg.Database.Type)
	}
}
