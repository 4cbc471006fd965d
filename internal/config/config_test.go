package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":memory:", cfg.Database.Target)
	assert.NotNil(t, cfg.Database.Options)
	assert.False(t, cfg.Checkpoint.Enabled)
	assert.Equal(t, "@hourly", cfg.Checkpoint.Schedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NotEmpty(t, cfg.Metrics.Listen)
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid full profile",
			raw: `{
				"database": {"target": "analytics.db", "options": {"journal_mode": "wal"}},
				"checkpoint": {"enabled": true, "schedule": "@hourly"},
				"logging": {"level": "debug", "console": true},
				"metrics": {"enabled": true, "listen": "127.0.0.1:9126"}
			}`,
		},
		{
			name: "empty object",
			raw:  `{}`,
		},
		{
			name:    "empty target rejected",
			raw:     `{"database": {"target": ""}}`,
			wantErr: true,
		},
		{
			name:    "non-string option rejected",
			raw:     `{"database": {"target": "a.db", "options": {"threads": 4}}}`,
			wantErr: true,
		},
		{
			name:    "unknown log level rejected",
			raw:     `{"logging": {"level": "loud"}}`,
			wantErr: true,
		},
		{
			name:    "malformed json rejected",
			raw:     `{"database": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
