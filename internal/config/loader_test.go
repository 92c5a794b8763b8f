package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{
		ConfigPaths: []string{t.TempDir()},
		FileName:    "does-not-exist",
		EnvPrefix:   "COVCOMMENT_TEST_DEFAULTS",
	})

	require.NoError(t, err)
	assert.Equal(t, "target/scala-2.13/scoverage-report/scoverage.xml", cfg.Report.Path)
	assert.Equal(t, "30s", cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, "api", cfg.Git.Source)
	assert.True(t, cfg.History.Enabled)
	assert.NotEmpty(t, cfg.History.Path)
	assert.True(t, cfg.Observability.Logging.Enabled)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `github:
  owner: acme
  repo: widgets
  baseURL: https://ghe.example.com/api/v3
report:
  path: custom/scoverage.xml
git:
  source: local
  repositoryDir: /work/checkout
history:
  enabled: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "covcomment.yaml"), []byte(content), 0644))

	cfg, err := Load(LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "covcomment",
		EnvPrefix:   "COVCOMMENT_TEST_FILE",
	})

	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, "widgets", cfg.GitHub.Repo)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHub.BaseURL)
	assert.Equal(t, "custom/scoverage.xml", cfg.Report.Path)
	assert.Equal(t, "local", cfg.Git.Source)
	assert.Equal(t, "/work/checkout", cfg.Git.RepositoryDir)
	assert.False(t, cfg.History.Enabled)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "covcomment.yaml"), []byte("github: [not: a: mapping"), 0644))

	_, err := Load(LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "covcomment",
		EnvPrefix:   "COVCOMMENT_TEST_BAD",
	})

	assert.Error(t, err)
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("COVCOMMENT_TEST_VALUE", "expanded")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "no variables", input: "plain/path.xml", want: "plain/path.xml"},
		{name: "braced syntax", input: "${COVCOMMENT_TEST_VALUE}/report.xml", want: "expanded/report.xml"},
		{name: "bare syntax", input: "$COVCOMMENT_TEST_VALUE/report.xml", want: "expanded/report.xml"},
		{name: "unset variable kept verbatim", input: "${COVCOMMENT_TEST_UNSET_XYZ}", want: "${COVCOMMENT_TEST_UNSET_XYZ}"},
		{name: "lowercase not treated as variable", input: "$lowercase", want: "$lowercase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvString(tt.input))
		})
	}
}

func TestExpandEnvVars_TouchesConfiguredPaths(t *testing.T) {
	t.Setenv("COVCOMMENT_TEST_DIR", "/data")

	cfg := Config{
		Report:  ReportConfig{Path: "${COVCOMMENT_TEST_DIR}/scoverage.xml"},
		History: HistoryConfig{Path: "$COVCOMMENT_TEST_DIR/history.db"},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "/data/scoverage.xml", expanded.Report.Path)
	assert.Equal(t, "/data/history.db", expanded.History.Path)
}
