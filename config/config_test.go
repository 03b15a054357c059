package config

import (
	"testing"

	"github.com/labinsight/dbops/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfig() *Config {
	return &Config{
		SupabaseURL:     "https://abcd1234.supabase.co",
		SupabaseAnonKey: "anon-key",
		ServiceRoleKey:  "service-key",
		EmbeddingAPIKey: "sk-test",
		DBPassword:      "secret",
	}
}

func TestValidateComplete(t *testing.T) {
	require.NoError(t, fullConfig().Validate())
}

func TestValidateMissingVars(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"url", func(c *Config) { c.SupabaseURL = "" }, EnvSupabaseURL},
		{"anon key", func(c *Config) { c.SupabaseAnonKey = "" }, EnvSupabaseAnonKey},
		{"service key", func(c *Config) { c.ServiceRoleKey = "" }, EnvServiceRoleKey},
		{"embedding key", func(c *Config) { c.EmbeddingAPIKey = "" }, EnvEmbeddingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fullConfig()
			tt.mutate(c)

			err := c.Validate()
			require.Error(t, err)
			assert.True(t, e.ContainsError(err, e.MsgConfigMissingEnv))
			assert.True(t, e.ContainsError(err, tt.want))
		})
	}
}

func TestValidateListsAllMissing(t *testing.T) {
	c := &Config{}

	err := c.Validate()
	require.Error(t, err)
	for _, env := range []string{EnvSupabaseURL, EnvSupabaseAnonKey,
		EnvServiceRoleKey, EnvEmbeddingAPIKey} {
		assert.True(t, e.ContainsError(err, env))
	}
}

func TestProjectRef(t *testing.T) {
	c := fullConfig()

	ref, err := c.ProjectRef()
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", ref)
}

func TestProjectRefInvalid(t *testing.T) {
	c := fullConfig()
	c.SupabaseURL = "not a url"

	_, err := c.ProjectRef()
	require.Error(t, err)
	assert.True(t, e.ContainsError(err, e.MsgConfigInvalidURL))
}

func TestDBConnParamDerived(t *testing.T) {
	for _, env := range []string{"DBHOST", "DBPORT", "DBUSER", "DBPASS", "DBNAME"} {
		t.Setenv(env, "")
	}

	cp, err := fullConfig().DBConnParam()
	require.NoError(t, err)

	assert.Equal(t, "db.abcd1234.supabase.co", cp.Host)
	assert.Equal(t, "5432", cp.Port)
	assert.Equal(t, "postgres", cp.User)
	assert.Equal(t, "secret", cp.Password)
	assert.Equal(t, "postgres", cp.DBName)
}

func TestDBConnParamEnvOverrides(t *testing.T) {
	t.Setenv("DBHOST", "localhost")
	t.Setenv("DBPORT", "5433")
	t.Setenv("DBUSER", "tester")
	t.Setenv("DBPASS", "override")
	t.Setenv("DBNAME", "labinsight_test")

	cp, err := fullConfig().DBConnParam()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cp.Host)
	assert.Equal(t, "5433", cp.Port)
	assert.Equal(t, "tester", cp.User)
	assert.Equal(t, "override", cp.Password)
	assert.Equal(t, "labinsight_test", cp.DBName)
}
