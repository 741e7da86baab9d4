package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mashupctl/internal/catalog"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EnvFile != ".env.example" || cfg.HTTP.Timeout != "30s" || cfg.Log.Level != "info" || cfg.Store.Path != "" {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.timeout != 30*time.Second {
		t.Errorf("timeout = %s", cfg.timeout)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mashupctl.yaml")
	os.WriteFile(path, []byte(`
env_file: prod.env
project_name: Antigravity
http:
  timeout: 5s
store:
  path: history.db
mqtt:
  enabled: true
  broker: tcp://localhost:1883
log:
  level: debug
  format: json
`), 0o644)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.EnvFile != "prod.env" || cfg.ProjectName != "Antigravity" || cfg.timeout != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MQTT.TopicPrefix != "mashupctl" {
		t.Errorf("topic prefix = %q", cfg.MQTT.TopicPrefix)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timeout", func(c *Config) { c.HTTP.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.HTTP.Timeout = "-1s" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := loadConfig(filepath.Join(t.TempDir(), "none.yaml"), false)
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// platformStub is a minimal fake of the platform REST surface.
type platformStub struct {
	mu       sync.Mutex
	calls    []string
	existing map[string]bool
	mashups  map[string]string // name -> mashupContent served on GET
}

func (p *platformStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.calls = append(p.calls, r.Method+" "+r.URL.Path)
	p.mu.Unlock()

	switch {
	case r.Method == http.MethodDelete:
		http.Error(w, "not found", http.StatusNotFound)
	case r.Method == http.MethodPut:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/Thingworx/ThingTemplates":
		w.Write([]byte(`{"rows":[{"name":"GenericThing"},{"name":"MashupHelper"}]}`))
	case r.Method == http.MethodGet:
		name := strings.TrimPrefix(r.URL.Path, "/Thingworx/Mashups/")
		p.mu.Lock()
		content, ok := p.mashups[name]
		p.mu.Unlock()
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"name": name, "mashupContent": content})
	case strings.HasSuffix(r.URL.Path, "/CreateThing"):
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.existing[body["name"]] {
			http.Error(w, "Thing already exists", http.StatusInternalServerError)
			return
		}
		p.existing[body["name"]] = true
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (p *platformStub) callLog() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.calls, "|")
}

type cliEnv struct {
	dir      string
	cfgFile  string
	envFile  string
	platform *platformStub
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	p := &platformStub{existing: make(map[string]bool), mashups: make(map[string]string)}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.example")
	content := "THINGWORX_BASE_URL=" + srv.URL + "/Thingworx\nTHINGWORX_APP_KEY=abc\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	env := &cliEnv{dir: dir, cfgFile: filepath.Join(dir, "mashupctl.yaml"), envFile: envFile, platform: p}
	env.writeConfig(t, "")
	return env
}

func (e *cliEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()
	cfg := "definitions_dir: " + filepath.Join(e.dir, "defs") + "\n" + extra
	if err := os.WriteFile(e.cfgFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e *cliEnv) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	base := []string{"--config", e.cfgFile, "--env", e.envFile, "--log-level", "error"}
	err := run(context.Background(), append(base, args...), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestCLIPushCalculator(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run("push", catalog.Calculator)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Creating Mashup: " + catalog.Calculator + "...",
		"Deleting existing Mashup (if any): " + catalog.Calculator + "...",
		"✓ Mashup '" + catalog.Calculator + "' created successfully!",
		"  View it at: ",
		"/Thingworx/Mashups/" + catalog.Calculator,
		"Mashup includes:",
		"  - Button: \"Berechnen\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	want := "DELETE /Thingworx/Mashups/" + catalog.Calculator + "|PUT /Thingworx/Mashups"
	if got := env.platform.callLog(); got != want {
		t.Errorf("calls = %s", got)
	}
}

func TestCLIPushAllIsSequential(t *testing.T) {
	env := setupCLI(t)

	if _, _, err := env.run("push", "--all", "--no-delete-first"); err != nil {
		t.Fatal(err)
	}
	calls := env.platform.callLog()
	if strings.Contains(calls, "DELETE") {
		t.Errorf("--no-delete-first ignored: %s", calls)
	}
	if n := strings.Count(calls, "PUT"); n != 8 {
		t.Errorf("puts = %d, want 8", n)
	}
}

func TestCLIPushArgumentErrors(t *testing.T) {
	env := setupCLI(t)

	if _, _, err := env.run("push"); err == nil {
		t.Error("push without names should fail")
	}
	if _, _, err := env.run("push", "--all", catalog.Calculator); err == nil {
		t.Error("names with --all should fail")
	}
	if _, _, err := env.run("push", catalog.ToolsThing); err == nil {
		t.Error("pushing a thing should fail")
	}
	if _, _, err := env.run("push", "--delete-first", "--no-delete-first", catalog.Calculator); err == nil {
		t.Error("conflicting flags should fail")
	}
	if env.platform.callLog() != "" {
		t.Errorf("no request expected: %s", env.platform.callLog())
	}
}

func TestCLIMissingCredentials(t *testing.T) {
	env := setupCLI(t)
	os.WriteFile(env.envFile, []byte("THINGWORX_BASE_URL=http://127.0.0.1:1/Thingworx\n"), 0o644)

	_, errOut, err := env.run("push", catalog.TestMashup)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(errOut, "THINGWORX_APP_KEY") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestCLICreateThingTwice(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run("create-thing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Creating Thing: Antigravity.Tools...") || !strings.Contains(out, "Thing created successfully.") {
		t.Errorf("first run:\n%s", out)
	}

	out, _, err = env.run("create-thing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Thing already exists.") || !strings.Contains(out, "Thing enabled.") {
		t.Errorf("second run:\n%s", out)
	}
	if n := strings.Count(env.platform.callLog(), "/Services/EnableThing"); n != 2 {
		t.Errorf("enable calls = %d, want 2", n)
	}
}

func TestCLICreateAdHocThing(t *testing.T) {
	env := setupCLI(t)

	if _, _, err := env.run("create-thing", "Line1.Press"); err == nil {
		t.Error("unknown thing without --template should fail")
	}
	if _, _, err := env.run("create-thing", "Line1.Press", "--template", "GenericThing"); err != nil {
		t.Fatal(err)
	}
}

func TestCLIInspectNotFound(t *testing.T) {
	env := setupCLI(t)

	out, errOut, err := env.run("inspect", "--out", env.dir)
	if err == nil {
		t.Fatal("expected failure exit")
	}
	if !strings.Contains(out, "Inspecting Mashup: hs.rechner-mu...") {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "Failed: 404 Not Found") {
		t.Errorf("stderr = %q", errOut)
	}
}

// rechnerContent is a fetched document carrying fields the local model
// does not know about.
const rechnerContent = `{"UI":{"Properties":{"Type":"mashup"},"Widgets":[]},` +
	`"Events":[{"Id":"e1","EventTriggerId":"btn","EventTriggerEvent":"Clicked","ExtraMarker":"KEEPME"}],` +
	`"DataBindings":[],` +
	`"Data":{"Rechner":{"DataName":"Rechner","EntityName":"ServiceHelper.Rechner","RefreshInterval":0,"Services":[]}}}`

func TestCLIInspectPrintsPlatformSections(t *testing.T) {
	env := setupCLI(t)
	env.platform.mashups[catalog.DefaultInspectionMashup] = rechnerContent

	out, _, err := env.run("inspect", "--out", env.dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"=== EVENTS ===",
		`"ExtraMarker": "KEEPME"`,
		"=== DATA BINDINGS ===\n[]",
		"=== DATA SECTION ===",
		`"RefreshInterval": 0`,
		"✓ Saved to " + filepath.Join(env.dir, "mashup_hs.rechner-mu_example.json"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, unsent := range []string{"EventHandlerArea", "EventTriggerSection"} {
		if strings.Contains(out, unsent) {
			t.Errorf("output has %s, which the platform never sent", unsent)
		}
	}
}

func TestCLISnapshots(t *testing.T) {
	env := setupCLI(t)
	if _, _, err := env.run("snapshots"); err == nil {
		t.Error("snapshots without a store should fail")
	}

	env.writeConfig(t, "store:\n  path: "+filepath.Join(env.dir, "h.db")+"\n")
	env.platform.mashups[catalog.DefaultInspectionMashup] = rechnerContent
	if _, _, err := env.run("inspect", "--no-save"); err != nil {
		t.Fatal(err)
	}

	out, _, err := env.run("snapshots")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "NAME") || !strings.Contains(out, catalog.DefaultInspectionMashup) {
		t.Errorf("list:\n%s", out)
	}

	out, _, err = env.run("snapshots", catalog.DefaultInspectionMashup)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"ExtraMarker": "KEEPME"`) || !json.Valid([]byte(out)) {
		t.Errorf("snapshot:\n%s", out)
	}

	_, errOut, err := env.run("snapshots", "never-inspected-mu")
	if err == nil || !strings.Contains(errOut, "mashupctl inspect never-inspected-mu") {
		t.Errorf("missing snapshot: err = %v, stderr = %q", err, errOut)
	}
}

func TestCLITemplates(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run("templates")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Listing ThingTemplates...") || !strings.Contains(out, "Template: MashupHelper") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out, "GenericThing") {
		t.Error("default filter should hide GenericThing")
	}
}

func TestCLIOfflineCommands(t *testing.T) {
	env := setupCLI(t)

	out, _, err := env.run("list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, catalog.ChainedCalculator) || !strings.Contains(out, "DELETE-FIRST") {
		t.Errorf("list:\n%s", out)
	}

	out, _, err = env.run("render", catalog.BorderSwitch)
	if err != nil {
		t.Fatal(err)
	}
	var entity map[string]any
	if err := json.Unmarshal([]byte(out), &entity); err != nil {
		t.Fatalf("render output is not JSON: %v", err)
	}
	if entity["name"] != catalog.BorderSwitch {
		t.Errorf("name = %v", entity["name"])
	}

	out, _, err = env.run("validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if strings.Count(out, ": ok") != 8 {
		t.Errorf("validate:\n%s", out)
	}

	if env.platform.callLog() != "" {
		t.Errorf("offline commands sent requests: %s", env.platform.callLog())
	}
}

func TestCLIHistory(t *testing.T) {
	env := setupCLI(t)

	if _, _, err := env.run("history"); err == nil {
		t.Error("history without a store should fail")
	}

	env.writeConfig(t, "store:\n  path: "+filepath.Join(env.dir, "h.db")+"\n")

	if _, _, err := env.run("push", catalog.HelloWorldVertical); err != nil {
		t.Fatal(err)
	}
	out, _, err := env.run("history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mashup_pushed") || !strings.Contains(out, catalog.HelloWorldVertical) {
		t.Errorf("history:\n%s", out)
	}

	if _, _, err := env.run("history", "--clear"); err == nil {
		t.Error("--clear without a name should fail")
	}
	if _, _, err := env.run("push", catalog.TestMashup); err != nil {
		t.Fatal(err)
	}
	out, _, err = env.run("history", "--clear", catalog.HelloWorldVertical)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Removed 1 history entries for "+catalog.HelloWorldVertical) {
		t.Errorf("clear: %q", out)
	}
	out, _, err = env.run("history")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, catalog.HelloWorldVertical) || !strings.Contains(out, catalog.TestMashup) {
		t.Errorf("history after clear:\n%s", out)
	}
}

func TestCLIVersion(t *testing.T) {
	env := setupCLI(t)
	out, _, err := env.run("version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "mashupctl dev" {
		t.Errorf("version = %q", out)
	}
}

func TestCLIUnderscoreFlags(t *testing.T) {
	env := setupCLI(t)
	if _, _, err := env.run("push", "--no_delete_first", catalog.Calculator); err != nil {
		t.Fatal(err)
	}
	if got := env.platform.callLog(); got != "PUT /Thingworx/Mashups" {
		t.Errorf("calls = %s", got)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestCLIServeWithoutPlatform(t *testing.T) {
	env := setupCLI(t)
	if err := os.WriteFile(env.envFile, []byte("# no instance configured yet\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out, errOut bytes.Buffer
	done := make(chan error, 1)
	go func() {
		args := []string{"--config", env.cfgFile, "--env", env.envFile, "--log-level", "error", "serve", "--listen", addr}
		done <- run(ctx, args, &out, &errOut)
	}()

	base := "http://" + addr
	deadline := time.Now().Add(5 * time.Second)
	var resp *http.Response
	for {
		var err error
		resp, err = http.Get(base + "/api/catalog")
		if err == nil {
			break
		}
		select {
		case runErr := <-done:
			t.Fatalf("serve exited: %v\n%s", runErr, errOut.String())
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("server not reachable: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	var defs []map[string]any
	err := json.NewDecoder(resp.Body).Decode(&defs)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusOK || len(defs) != len(catalog.Builtin().All("")) {
		t.Errorf("catalog status = %d, %d definitions, err = %v", resp.StatusCode, len(defs), err)
	}

	resp, err = http.Post(base+"/api/mashups/"+catalog.Calculator+"/push", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("push status = %d, want 503", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
	if calls := env.platform.callLog(); calls != "" {
		t.Errorf("platform calls = %s", calls)
	}
}
