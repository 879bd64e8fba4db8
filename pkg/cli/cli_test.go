package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specimport/pkg/auth"
	"github.com/getmockd/specimport/pkg/envstore"
	"github.com/getmockd/specimport/pkg/portability"
	"github.com/getmockd/specimport/pkg/session"
)

const collectionJSON = `{
  "info": {"name": "Shop"},
  "auth": {"type": "bearer", "bearer": [{"key": "token", "value": "{{token}}"}]},
  "variable": [{"key": "baseUrl", "value": "https://shop.example.com"}, {"key": "api_token", "value": "abc"}],
  "item": [
    {"name": "List", "request": {"method": "GET", "url": "https://a.com/items?page=1",
      "header": [{"key": "X-API-Key", "value": "K"}]}},
    {"name": "Create", "request": {"method": "POST", "url": "{{baseUrl}}/items",
      "body": {"mode": "raw", "raw": "{\"a\":1}"}}}
  ]
}`

const environmentJSON = `{"name":"Dev","values":[
  {"key":"host","value":"dev.local","enabled":true},
  {"key":"api_token","value":"abcdef0123456789ABCDEF01","enabled":true}
],"_postman_variable_scope":"environment"}`

// isolate runs the test in an empty directory with no global config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{"SPECIMPORT_HOSTNAME", "SPECIMPORT_SESSIONS_URL", "SPECIMPORT_OUTPUT_DIR", "SPECIMPORT_ENV_DIR", "SPECIMPORT_CONFIG", "SPECIMPORT_JSON"} {
		t.Setenv(name, "")
	}
	t.Chdir(dir)
	return dir
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// resetFlags restores every flag of every command to its default so
// package-level flag variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	jsonOutput = false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion_JSON(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, "version", "--json")
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &obj))
	for _, key := range []string{"version", "commit", "date", "go", "os", "arch", "formats"} {
		assert.Contains(t, obj, key)
	}
	assert.ElementsMatch(t, []any{"environment", "openapi", "postman"}, obj["formats"])
}

func TestName(t *testing.T) {
	isolate(t)

	stdout, _, err := run(t, "name", "get", "https://a.com/x?q=1")
	require.NoError(t, err)
	assert.Equal(t, "GET /x\nhttps://a.com/x?q=1\n", stdout)

	stdout, _, err = run(t, "name", "POST", "{{baseUrl}}/v1/items", "--hostname", "staging.local", "--json")
	require.NoError(t, err)
	var out NameOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "POST /v1/items", out.Name)
	assert.Equal(t, "https://staging.local/v1/items", out.Resolved)
}

func TestDetect_JSON(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "exports/shop.json", collectionJSON)
	writeInput(t, dir, "exports/dev.postman_environment.json", environmentJSON)
	writeInput(t, dir, "exports/api.yaml", "---\nopenapi: 3.0.0\ninfo:\n  title: T\npaths: {}\n")

	stdout, _, err := run(t, "detect", "exports/**/*.{json,yaml}", "--json")
	require.NoError(t, err)

	var rows []DetectOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 3)

	byFile := map[string]DetectOutput{}
	for _, r := range rows {
		byFile[filepath.Base(r.File)] = r
	}

	env := byFile["dev.postman_environment.json"]
	assert.Equal(t, portability.FormatEnvironment, env.Format)
	assert.InDelta(t, 0.95, env.Confidence, 0.001)
	assert.Equal(t, 2, env.Variables)

	shop := byFile["shop.json"]
	assert.Equal(t, portability.FormatPostman, shop.Format)
	assert.True(t, shop.Supported)
	assert.Equal(t, 2, shop.Requests)
	require.NotNil(t, shop.Auth)
	assert.True(t, shop.Auth.HasAuth)

	yaml := byFile["api.yaml"]
	assert.False(t, yaml.Supported)
	assert.NotEmpty(t, yaml.Message)
}

func TestDetect_Text(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)
	writeInput(t, dir, "dev.postman_environment.json", environmentJSON)

	stdout, _, err := run(t, "detect", "shop.json", "dev.postman_environment.json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "FORMAT")
	assert.Contains(t, stdout, "Postman")
	assert.Contains(t, stdout, "2 requests")
	assert.Contains(t, stdout, "2 variables")
}

func TestDetect_NoMatches(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "detect", "nothing/**/*.json")
	assert.ErrorContains(t, err, "no files match")
}

func TestImport_DryRun(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)

	stdout, _, err := run(t, "import", "shop.json", "--dry-run", "--json")
	require.NoError(t, err)

	var results []ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Shop", results[0].Collection)
	assert.Equal(t, []string{"GET /items", "POST /items"}, results[0].Sessions)
	assert.Equal(t, 0, results[0].Created)
	assert.Equal(t, "dry-run", results[0].Sink)
}

func TestImport_Filter(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)

	stdout, _, err := run(t, "import", "shop.json", "--dry-run", "--json", "--filter", `method == "POST"`)
	require.NoError(t, err)

	var results []ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, []string{"POST /items"}, results[0].Sessions)
	assert.Equal(t, 1, results[0].Filtered)

	_, _, err = run(t, "import", "shop.json", "--filter", `method +`)
	assert.Error(t, err)
}

func TestImport_OutputDir(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)
	out := filepath.Join(dir, "sessions")

	stdout, _, err := run(t, "import", "shop.json",
		"--output-dir", out, "--auth", "bearer", "--auth-param", "token=T1",
		"--hostname", "staging.local", "--batch-pause", "0s")
	require.NoError(t, err)
	assert.Contains(t, stdout, `collection "Shop"`)
	assert.Contains(t, stdout, "created")

	sessions, raws, err := session.NewFileStore(out).Load("Shop")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for i, raw := range raws {
		assert.Contains(t, raw, "Authorization: Bearer T1\r\n", sessions[i].Name)
		assert.Contains(t, raw, "Host: staging.local\r\n")
		assert.NotContains(t, raw, "X-API-Key")
	}
}

func TestImport_SessionsURL(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)

	var mu sync.Mutex
	var names []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if assert.NoError(t, json.Unmarshal(body, &req)) {
			mu.Lock()
			names = append(names, req["name"].(string))
			mu.Unlock()
		}
		assert.Equal(t, "secret-key", r.Header.Get(session.APIKeyHeader))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	t.Setenv("SPECIMPORT_API_KEY", "secret-key")

	stdout, _, err := run(t, "import", "shop.json", "--sessions-url", srv.URL, "--json", "--batch-pause", "0s")
	require.NoError(t, err)

	var results []ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, 2, results[0].Created)
	assert.ElementsMatch(t, []string{"GET /items", "POST /items"}, names)
}

func TestImport_MissingAuthField(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)

	stdout, _, err := run(t, "import", "shop.json", "--auth", "bearer", "--json")
	require.Error(t, err)

	var results []ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Contains(t, results[0].Error, "missing required field: token")
}

func TestImport_PartialFailure(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "in/shop.json", collectionJSON)
	writeInput(t, dir, "in/broken.json", `{"info": {`)
	writeInput(t, dir, "in/spec.yaml", "openapi: 3.0.0\ninfo:\n  title: T\nservers:\n  - url: https://a.com\n")

	stdout, _, err := run(t, "import", "in/*", "--dry-run", "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 file(s) failed")

	var results []ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 3)

	for _, r := range results {
		switch filepath.Base(r.File) {
		case "shop.json":
			assert.Empty(t, r.Error)
		case "spec.yaml":
			assert.Contains(t, r.Error, "Convert the file to JSON")
		case "broken.json":
			assert.NotEmpty(t, r.Error)
		}
	}
}

func TestImport_Environment(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "dev.postman_environment.json", environmentJSON)
	envDir := filepath.Join(dir, "envs")

	_, _, err := run(t, "import", "dev.postman_environment.json", "--env-dir", envDir)
	require.NoError(t, err)
	_, _, err = run(t, "import", "dev.postman_environment.json", "--env-dir", envDir)
	require.NoError(t, err)

	names, err := envstore.NewDotenvStore(envDir).Names(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dev", "Dev 1"}, names)
}

func TestImport_Interactive(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)

	var seen portability.AuthDetection
	old := promptAuth
	promptAuth = func(det portability.AuthDetection, hostname string) (auth.Config, error) {
		seen = det
		return auth.APIKey{Key: "X-Key", Value: "v", Hostname: "picked.local"}, nil
	}
	t.Cleanup(func() { promptAuth = old })

	out := filepath.Join(dir, "sessions")
	_, _, err := run(t, "import", "shop.json", "-i", "--output-dir", out, "--batch-pause", "0s")
	require.NoError(t, err)
	assert.True(t, seen.HasAuth)

	_, raws, err := session.NewFileStore(out).Load("Shop")
	require.NoError(t, err)
	require.Len(t, raws, 2)
	for _, raw := range raws {
		assert.Contains(t, raw, "X-Key: v\r\n")
		assert.Contains(t, raw, "Host: picked.local\r\n")
	}
}

func TestImport_ConfigFile(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)
	out := filepath.Join(dir, "from-config")
	writeInput(t, dir, ".specimportrc.yaml", "outputDir: "+out+"\nhostname: cfg.local\nbatchPause: 0s\n")

	_, _, err := run(t, "import", "shop.json")
	require.NoError(t, err)

	sessions, _, err := session.NewFileStore(out).Load("Shop")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "cfg.local", sessions[0].Spec.Host)
}

func TestImport_InvalidConfig(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)

	_, _, err := run(t, "import", "shop.json", "--batch-size", "500")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestEnvImport_Only(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "dev.postman_environment.json", environmentJSON)
	envDir := filepath.Join(dir, "envs")

	stdout, _, err := run(t, "env", "import", "dev.postman_environment.json", "--env-dir", envDir, "--only", "api_token", "--json")
	require.NoError(t, err)

	var out EnvImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "Dev", out.Environment)
	assert.Equal(t, []EnvVarOutput{{Name: "api_token", Secret: true}}, out.Variables)
	assert.NotContains(t, stdout, "abcdef0123456789")

	records, err := envstore.NewDotenvStore(envDir).Read("Dev")
	require.NoError(t, err)
	assert.Equal(t, []envstore.Record{{Name: "api_token", Value: "abcdef0123456789ABCDEF01", Secret: true}}, records)

	_, _, err = run(t, "env", "import", "dev.postman_environment.json", "--env-dir", envDir, "--only", "nope")
	assert.ErrorContains(t, err, "unknown variable(s): nope")
}

func TestEnvImport_CollectionVariables(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)
	envDir := filepath.Join(dir, "envs")

	_, _, err := run(t, "env", "import", "shop.json", "--env-dir", envDir, "--name", "Shop vars")
	require.NoError(t, err)

	records, err := envstore.NewDotenvStore(envDir).Read("Shop vars")
	require.NoError(t, err)
	require.Len(t, records, 2)

	stdout, _, err := run(t, "env", "list", "--env-dir", envDir)
	require.NoError(t, err)
	assert.Equal(t, "Shop vars\n", stdout)
}

func TestEnvImport_Interactive(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "dev.postman_environment.json", environmentJSON)
	envDir := filepath.Join(dir, "envs")

	old := promptVariables
	promptVariables = func(vars []portability.EnvironmentVariable) ([]portability.EnvironmentVariable, error) {
		return vars[:1], nil
	}
	t.Cleanup(func() { promptVariables = old })

	stdout, _, err := run(t, "env", "import", "dev.postman_environment.json", "-i", "--env-dir", envDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `Stored environment "Dev"`))

	records, err := envstore.NewDotenvStore(envDir).Read("Dev")
	require.NoError(t, err)
	assert.Equal(t, []envstore.Record{{Name: "host", Value: "dev.local"}}, records)
}

func TestLogFile(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, "shop.json", collectionJSON)
	logPath := filepath.Join(dir, "run.log")

	_, _, err := run(t, "import", "shop.json", "--dry-run", "--log-file", logPath, "--log-level", "debug")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"file loaded"`)
	assert.Contains(t, string(data), `"component":"pipeline"`)
}
