package contract

import (
	"testing"

	"github.com/abfolio/abfolio/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		PlatformURL:  "https://growthbook.example.com/",
		APIKey:       "secret",
		PageSize:     100,
		Limit:        25,
		Precision:    1,
		Output:       "text",
		CacheBackend: "sqlite",
		Color:        "yes",
	}
}

func TestProcessAndValidate(t *testing.T) {
	cfg := &Config{}
	input := validInput()

	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "https://growthbook.example.com", cfg.PlatformURL, "trailing slash is trimmed")
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 25, cfg.ResultLimit)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.CacheBackend)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	input := validInput()
	input.PageSize = 0

	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
}

func TestProcessAndValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConfigRawInput)
		wantErr string
	}{
		{
			name:    "missing platform url",
			mutate:  func(in *ConfigRawInput) { in.PlatformURL = "" },
			wantErr: "platform-url is required",
		},
		{
			name:    "zero limit",
			mutate:  func(in *ConfigRawInput) { in.Limit = 0 },
			wantErr: "limit must be positive",
		},
		{
			name:    "limit above maximum",
			mutate:  func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 },
			wantErr: "exceeds maximum",
		},
		{
			name:    "negative precision",
			mutate:  func(in *ConfigRawInput) { in.Precision = -1 },
			wantErr: "precision must be between",
		},
		{
			name:    "invalid output mode",
			mutate:  func(in *ConfigRawInput) { in.Output = "xml" },
			wantErr: "invalid output mode",
		},
		{
			name:    "invalid color",
			mutate:  func(in *ConfigRawInput) { in.Color = "maybe" },
			wantErr: "invalid color value",
		},
		{
			name:    "invalid cache backend",
			mutate:  func(in *ConfigRawInput) { in.CacheBackend = "oracle" },
			wantErr: "invalid cache backend",
		},
		{
			name:    "invalid runs backend",
			mutate:  func(in *ConfigRawInput) { in.RunsBackend = "oracle" },
			wantErr: "invalid runs backend",
		},
		{
			name: "mysql without connection string",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
			},
			wantErr: "cache-db-connect is required",
		},
		{
			name: "shared sqlite file between cache and runs",
			mutate: func(in *ConfigRawInput) {
				in.RunsBackend = "sqlite"
				in.CacheDBConnect = "/tmp/shared.db"
				in.RunsDBConnect = "/tmp/shared.db"
			},
			wantErr: "different SQLite database files",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			err := ProcessAndValidate(&Config{}, input)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProcessAndValidateOutputModeCaseInsensitive(t *testing.T) {
	cfg := &Config{}
	input := validInput()
	input.Output = "JSON"

	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, schema.JSONOut, cfg.Output)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{name: "sqlite never requires one", backend: schema.SQLiteBackend, connStr: "", wantErr: false},
		{name: "none never requires one", backend: schema.NoneBackend, connStr: "", wantErr: false},
		{name: "valid mysql", backend: schema.MySQLBackend, connStr: "user:pass@tcp(localhost:3306)/abfolio", wantErr: false},
		{name: "mysql missing tcp", backend: schema.MySQLBackend, connStr: "user:pass@localhost/abfolio", wantErr: true},
		{name: "mysql missing database", backend: schema.MySQLBackend, connStr: "user:pass@tcp(localhost:3306)", wantErr: true},
		{name: "valid postgres", backend: schema.PostgreSQLBackend, connStr: "host=localhost dbname=abfolio", wantErr: false},
		{name: "postgres missing host", backend: schema.PostgreSQLBackend, connStr: "dbname=abfolio", wantErr: true},
		{name: "postgres missing dbname", backend: schema.PostgreSQLBackend, connStr: "host=localhost", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{PlatformURL: "https://growthbook.example.com", Project: "growth", ResultLimit: 25}
	clone := cfg.Clone()
	clone.Project = "checkout"

	assert.Equal(t, "growth", cfg.Project, "clone does not mutate the original")
	assert.Equal(t, cfg.PlatformURL, clone.PlatformURL)
}
