package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/llm"
)

// isolate keeps the caller's environment and home config out of the test.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "READMIND_LLM_PROVIDER", "READMIND_LANG", "READMIND_PROFILE"} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readmind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-flash", cfg.LLM.Gemini.Model)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, NotesSQLite, cfg.Notes.Backend)
	assert.Equal(t, "zh", cfg.Lang)
	assert.Equal(t, 100, cfg.Dialogue.MaxWords)
	assert.Equal(t, "127.0.0.1:8080", cfg.Serve.Addr)

	p, err := cfg.ParsedProfile()
	require.NoError(t, err)
	assert.Equal(t, capability.SampleProfile(), p)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
llm:
  provider: openai
  openai:
    model: gpt-4o
    base_url: http://localhost:11434/v1
  timeout: 30s
lang: en
profile: R1=10,R2=20,R3=30,R4=40
dialogue:
  max_words: 60
`)
	t.Setenv("READMIND_DIALOGUE_MAX_WORDS", "80")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("lang", "zh", "")
	flags.String("model", "", "")
	require.NoError(t, flags.Parse([]string{"--lang=zh", "--model=gpt-4.1"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4.1", cfg.LLM.OpenAI.Model, "flag overrides file")
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.OpenAI.BaseURL)
	assert.Equal(t, "sk-env", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 80, cfg.Dialogue.MaxWords, "env overrides file")
	assert.Equal(t, "zh", cfg.Lang, "flag overrides file")
	assert.Equal(t, "R1=10,R2=20,R3=30,R4=40", cfg.Profile)
}

func TestLoad_DiscoversProvider(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
	assert.NoError(t, cfg.LLM.Validate())
}

func TestLoad_ProviderEnv(t *testing.T) {
	isolate(t)
	t.Setenv("READMIND_LLM_PROVIDER", "mock")
	t.Setenv("GEMINI_API_KEY", "g")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"provider", "llm:\n  provider: bard\n", "llm.provider"},
		{"lang", "lang: fr\n", "lang"},
		{"profile", "profile: R1=10\n", "profile"},
		{"backend", "notes:\n  backend: s3\n", "notes.backend"},
		{"file backend needs dir", "notes:\n  backend: file\n", "notes.dir"},
		{"catalog", "catalog: /does/not/exist.yaml\n", "catalog"},
		{"log level", "log:\n  level: loud\n", "log.level"},
		{"words", "dialogue:\n  max_words: 3\n", "dialogue.max_words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	isolate(t)
	_, err := Load(writeConfig(t, "llm: [unclosed"), nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "read config"))
}

func TestValidate_CatalogFile(t *testing.T) {
	isolate(t)
	cat := filepath.Join(t.TempDir(), "texts.yaml")
	require.NoError(t, os.WriteFile(cat, []byte("[]"), 0o600))

	cfg, err := Load(writeConfig(t, "catalog: "+cat+"\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, cat, cfg.Catalog)
}
