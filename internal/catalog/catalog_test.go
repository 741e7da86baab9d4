package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mashupctl/internal/mashup"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func generic(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestBuiltinRegistry(t *testing.T) {
	r := Builtin()
	if r.Len() != 9 {
		t.Fatalf("len = %d, want 9", r.Len())
	}
	if got := len(r.All(KindMashup)); got != 8 {
		t.Errorf("mashups = %d, want 8", got)
	}
	if got := len(r.All(KindThing)); got != 1 {
		t.Errorf("things = %d, want 1", got)
	}

	deleteFirst := map[string]bool{
		TestMashup:         false,
		HelloWorldVertical: false,
		ComplexLayout:      true,
		BorderSwitch:       false,
		NumericTransfer:    true,
		WidgetTest:         true,
		Calculator:         true,
		ChainedCalculator:  true,
	}
	for name, want := range deleteFirst {
		d := r.Lookup(name)
		if d == nil {
			t.Fatalf("%s missing", name)
		}
		if d.DeleteFirst != want {
			t.Errorf("%s delete first = %v, want %v", name, d.DeleteFirst, want)
		}
		if d.Source != SourceBuiltin {
			t.Errorf("%s source = %q", name, d.Source)
		}
	}
}

func TestBuiltinEntitiesRoundTrip(t *testing.T) {
	for _, d := range Builtin().All(KindMashup) {
		t.Run(d.Name, func(t *testing.T) {
			e, err := d.Entity()
			if err != nil {
				t.Fatal(err)
			}
			data, err := json.Marshal(e)
			if err != nil {
				t.Fatal(err)
			}
			var back mashup.Entity
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			data2, err := json.Marshal(&back)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(generic(t, data), generic(t, data2)) {
				t.Error("entity does not round-trip")
			}

			if back.Name != d.Name || back.ProjectName != mashup.DefaultProject {
				t.Errorf("name = %q project = %q", back.Name, back.ProjectName)
			}
			content, err := back.Content()
			if err != nil {
				t.Fatal(err)
			}
			if problems := mashup.Validate(content); len(problems) != 0 {
				t.Errorf("problems: %v", problems)
			}
		})
	}
}

func TestBuildersAreDeterministic(t *testing.T) {
	d := Builtin().Lookup(ChainedCalculator)
	a, err := d.Entity()
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Entity()
	if err != nil {
		t.Fatal(err)
	}
	if a.MashupContent != b.MashupContent {
		t.Error("two builds produced different content")
	}
}

func TestCalculatorWiring(t *testing.T) {
	r := Builtin()

	c, err := r.Lookup(Calculator).Content()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Events) != 1 || len(c.DataBindings) != 3 {
		t.Errorf("calculator events = %d bindings = %d", len(c.Events), len(c.DataBindings))
	}
	helper, ok := c.Data[ServiceHelperThing]
	if !ok || helper.EntityType != "Things" || !helper.HasService("Rechner") {
		t.Errorf("ServiceHelper source = %+v", helper)
	}
	if c.DataBindings[2].SourceDetails != "AllData" || c.DataBindings[2].PropertyMaps[0].SourcePropertyType != mashup.PropertyTypeField {
		t.Errorf("result binding = %+v", c.DataBindings[2])
	}

	cc, err := r.Lookup(ChainedCalculator).Content()
	if err != nil {
		t.Fatal(err)
	}
	if len(cc.Events) != 2 || len(cc.DataBindings) != 4 {
		t.Errorf("chained events = %d bindings = %d", len(cc.Events), len(cc.DataBindings))
	}
	chain := cc.Events[1]
	if chain.EventTriggerArea != mashup.AreaData || chain.EventTriggerEvent != mashup.EventServiceInvokeCompleted ||
		chain.EventHandlerService != "Rechner2" {
		t.Errorf("chain event = %+v", chain)
	}
}

func TestLegacyTestMashup(t *testing.T) {
	d := Builtin().Lookup(TestMashup)
	e, err := d.Entity()
	if err != nil {
		t.Fatal(err)
	}
	if e.Metadata == nil {
		t.Fatal("test mashup should carry extended metadata")
	}
	c, err := e.Content()
	if err != nil {
		t.Fatal(err)
	}
	if c.DesignTimePermissions == nil || c.CustomMashupCSS == nil {
		t.Error("legacy content blocks missing")
	}
	if len(c.UI.Widgets) != 1 || c.UI.Widgets[0].Properties["Text"] != "Hello World" {
		t.Errorf("widgets = %+v", c.UI.Widgets)
	}
}

func TestBorderSwitchMaster(t *testing.T) {
	c, err := Builtin().Lookup(BorderSwitch).Content()
	if err != nil {
		t.Fatal(err)
	}
	if c.UI.Properties["Master"] != BorderSwitchMaster {
		t.Errorf("master = %v", c.UI.Properties["Master"])
	}
}

func TestThingRequest(t *testing.T) {
	r := Builtin()
	req, err := r.Lookup(ToolsThing).ThingRequest()
	if err != nil {
		t.Fatal(err)
	}
	want := mashup.ThingRequest{Name: ToolsThing, Description: "Tools for Antigravity Agent", ThingTemplateName: "GenericThing"}
	if req != want {
		t.Errorf("request = %+v, want %+v", req, want)
	}

	if _, err := r.Lookup(Calculator).ThingRequest(); err == nil {
		t.Error("expected error for mashup definition")
	}
	if _, err := r.Lookup(ToolsThing).Entity(); err == nil {
		t.Error("expected error for thing definition")
	}
}

const definitionYAML = `
mashups:
  - name: acme.status-mu
    description: Status board
    delete_first: true
    project: AcmeProject
    summary: [one label]
    content:
      UI:
        Properties:
          Id: mashup-root
          Type: mashup
        Widgets:
          - Properties:
              Id: ptcslabel-1
              Type: ptcslabel
              LabelText: OK
            Widgets: []
things:
  - name: Acme.Helper
    description: helper thing
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(definitionYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	override := "mashups:\n  - name: " + Calculator + "\n    content:\n      UI:\n        Properties: {Id: r, Type: mashup}\n"
	if err := os.WriteFile(filepath.Join(dir, "override.yml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope"), 0o644)

	r := Builtin()
	if err := LoadDir(dir, r, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 11 {
		t.Errorf("len = %d, want 11", r.Len())
	}

	d := r.Lookup("acme.status-mu")
	if d == nil {
		t.Fatal("acme.status-mu not loaded")
	}
	if !d.DeleteFirst || d.Project != "AcmeProject" || len(d.Summary) != 1 {
		t.Errorf("definition = %+v", d)
	}
	e, err := d.Entity()
	if err != nil {
		t.Fatal(err)
	}
	if e.ProjectName != "AcmeProject" {
		t.Errorf("project = %q", e.ProjectName)
	}
	c, err := e.Content()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Data[mashup.SourceSession]; !ok {
		t.Error("default data sources not filled in")
	}
	if c.MashupType != mashup.TypeMashup {
		t.Errorf("mashup type = %q", c.MashupType)
	}
	if c.WidgetCount() != 2 {
		t.Errorf("widgets = %d, want 2", c.WidgetCount())
	}

	th := r.Lookup("Acme.Helper")
	if th == nil || th.Kind != KindThing || th.Template != DefaultThingTemplate {
		t.Errorf("thing = %+v", th)
	}

	if got := r.Lookup(Calculator); got.Source == SourceBuiltin {
		t.Error("file definition should override the built-in")
	}
}

func TestLoadDirMissing(t *testing.T) {
	r := NewRegistry()
	if err := LoadDir(filepath.Join(t.TempDir(), "nope"), r, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if err := LoadDir("", r, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 0 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestParseDefinitionsErrors(t *testing.T) {
	cases := map[string]string{
		"no name":    "mashups:\n  - content: {UI: {Properties: {Type: mashup}}}\n",
		"no content": "mashups:\n  - name: x\n",
		"no UI":      "mashups:\n  - name: x\n    content: {Data: {}}\n",
		"no type":    "mashups:\n  - name: x\n    content: {UI: {Properties: {Id: r}}}\n",
		"thing name": "things:\n  - description: x\n",
		"bad yaml":   "mashups: [",
	}
	for name, in := range cases {
		if _, err := ParseDefinitions([]byte(in), name); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
