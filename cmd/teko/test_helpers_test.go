package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"teko/internal/config"
	"teko/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	photoPath  string
}

// setupCLITestEnv writes a config that points Discogs and the vision model at
// local fakes. The vision fake answers with visionReply, or 401 when it is
// empty.
func setupCLITestEnv(t *testing.T, visionReply string) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{}
	t.Setenv("TEKO_USER", "")

	discogsSrv := httptest.NewServer(fakeDiscogs(t))
	t.Cleanup(discogsSrv.Close)
	visionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if visionReply == "" {
			http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": visionReply}},
			},
		})
	}))
	t.Cleanup(visionSrv.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithDiscogsURL(discogsSrv.URL),
		testsupport.WithVisionURL(visionSrv.URL),
	)
	base := testsupport.BaseDir(cfg)
	env.cfg = cfg
	env.configPath = filepath.Join(base, "config.toml")
	env.photoPath = testsupport.WriteImage(t, filepath.Join(base, "photos", "sleeve.png"))
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func fakeDiscogs(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/database/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := strings.ToLower(r.URL.Query().Get("q") + r.URL.Query().Get("artist"))
		if !strings.Contains(q, "pink floyd") {
			_, _ = w.Write([]byte(`{"pagination":{"page":1,"pages":1,"items":0},"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"pagination":{"page":1,"pages":1,"items":1},"results":[
			{"id":10362,"master_id":10362,"type":"master","title":"Pink Floyd - The Dark Side Of The Moon",
			 "year":"1973","cover_image":"https://img.example/dsotm.jpg","genre":["Rock"]}]}`))
	})
	mux.HandleFunc("/masters/10362/versions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pagination":{"page":1,"pages":1,"items":1},"versions":[
			{"id":1873013,"title":"The Dark Side Of The Moon","label":"Harvest","country":"UK",
			 "catno":"SHVL 804","released":"1973-03-23","format":"Vinyl, LP, Album"}]}`))
	})
	return mux
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
