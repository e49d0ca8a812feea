package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qres.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", DefaultDatabase, "")
	flags.String("schema", DefaultSchemaDir, "")
	flags.String("format", DefaultFormat, "")
	flags.Int("max-concurrency", DefaultMaxConcurrency, "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Database:       DefaultDatabase,
		SchemaDir:      DefaultSchemaDir,
		Format:         DefaultFormat,
		MaxConcurrency: DefaultMaxConcurrency,
	}, cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: blog.db
schema_dir: ./models
format: json
max_concurrency: 8
verbose: true
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "blog.db", cfg.Database)
	assert.Equal(t, "./models", cfg.SchemaDir)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qres.yaml"), []byte("database: local.db\n"), 0o644))
	chdir(t, dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "local.db", cfg.Database)
	assert.NotEmpty(t, cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "database: file.db\nformat: json\nmax_concurrency: 2\n")

	// Environment overrides the file.
	t.Setenv("QRES_DATABASE", "env.db")
	t.Setenv("QRES_MAX_CONCURRENCY", "6")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, 6, cfg.MaxConcurrency)
	assert.Equal(t, "json", cfg.Format)

	// Explicit flags override both; unset flags do not.
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--database", "flag.db"}))

	cfg, err = Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.Database)
	assert.Equal(t, 6, cfg.MaxConcurrency)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	_, err = Load(writeConfig(t, "format: xml\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)

	_, err = Load(writeConfig(t, "max_concurrency: 0\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrency")

	_, err = Load(writeConfig(t, "database: [oops\n"), nil)
	require.Error(t, err)
}
