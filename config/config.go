// Package config loads and validates the environment the pipeline and
// gateway run with. Presence of the required variables is the only fatal
// precondition; values are otherwise treated as opaque strings.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/labinsight/dbops/e"
	"github.com/labinsight/dbops/sql"
)

const (
	ECode010101 = e.Code0101 + "01"
	ECode010102 = e.Code0101 + "02"
	ECode010103 = e.Code0101 + "03"

	// EnvSupabaseURL the Supabase project URL
	EnvSupabaseURL = "NEXT_PUBLIC_SUPABASE_URL"
	// EnvSupabaseAnonKey the public API key
	EnvSupabaseAnonKey = "NEXT_PUBLIC_SUPABASE_ANON_KEY"
	// EnvServiceRoleKey the privileged service credential
	EnvServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	// EnvEmbeddingAPIKey the embedding API credential
	EnvEmbeddingAPIKey = "OPENAI_API_KEY"
	// EnvDBPassword the database password, not derivable from the project URL
	EnvDBPassword = "SUPABASE_DB_PASSWORD"
)

// Config holds the environment provided settings
type Config struct {
	SupabaseURL     string
	SupabaseAnonKey string
	ServiceRoleKey  string
	EmbeddingAPIKey string
	DBPassword      string
}

// LoadFromENV populates a Config from the environment
func LoadFromENV() (c *Config) {
	return &Config{
		SupabaseURL:     os.Getenv(EnvSupabaseURL),
		SupabaseAnonKey: os.Getenv(EnvSupabaseAnonKey),
		ServiceRoleKey:  os.Getenv(EnvServiceRoleKey),
		EmbeddingAPIKey: os.Getenv(EnvEmbeddingAPIKey),
		DBPassword:      os.Getenv(EnvDBPassword),
	}
}

// Validate ensures all required environment values are present. It fails
// fast, listing every missing variable, before any database work happens.
func (c *Config) Validate() (err error) {
	var missing []string

	if c.SupabaseURL == "" {
		missing = append(missing, EnvSupabaseURL)
	}
	if c.SupabaseAnonKey == "" {
		missing = append(missing, EnvSupabaseAnonKey)
	}
	if c.ServiceRoleKey == "" {
		missing = append(missing, EnvServiceRoleKey)
	}
	if c.EmbeddingAPIKey == "" {
		missing = append(missing, EnvEmbeddingAPIKey)
	}

	if len(missing) > 0 {
		return e.N(ECode010101, fmt.Sprintf("%s: %s",
			e.MsgConfigMissingEnv, strings.Join(missing, ", ")))
	}

	return nil
}

// ProjectRef extracts the project reference from the Supabase project URL,
// e.g. https://abcd1234.supabase.co -> abcd1234
func (c *Config) ProjectRef() (ref string, err error) {
	u, err := url.Parse(c.SupabaseURL)
	if err != nil || u.Host == "" {
		return "", e.N(ECode010102, fmt.Sprintf("%s: %s",
			e.MsgConfigInvalidURL, c.SupabaseURL))
	}

	ref, _, found := strings.Cut(u.Host, ".")
	if !found || ref == "" {
		return "", e.N(ECode010103, fmt.Sprintf("%s: %s",
			e.MsgConfigInvalidURL, c.SupabaseURL))
	}

	return ref, nil
}

// DBConnParam derives Postgres connection parameters from the Supabase
// project URL. The standard DBHOST/DBPORT/DBUSER/DBPASS/DBNAME variables
// override any derived value.
func (c *Config) DBConnParam() (cp *sql.ConnParam, err error) {
	cp = sql.GetConnParamFromENV()

	if cp.Host == "" {
		ref, err := c.ProjectRef()
		if err != nil {
			return nil, err
		}
		cp.Host = fmt.Sprintf("db.%s.supabase.co", ref)
	}
	if cp.Port == "" {
		cp.Port = "5432"
	}
	if cp.User == "" {
		cp.User = "postgres"
	}
	if cp.Password == "" {
		cp.Password = c.DBPassword
	}
	if cp.DBName == "" {
		cp.DBName = "postgres"
	}

	return cp, nil
}
