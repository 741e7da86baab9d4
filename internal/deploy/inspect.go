package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mashupctl/internal/events"
	"mashupctl/internal/mashup"
)

// InspectOptions tune an inspection.
type InspectOptions struct {
	Save    bool   // write the content to a local file
	SaveDir string // directory for the file, default "."
}

// Inspection is a fetched mashup.
type Inspection struct {
	Name     string
	Content  mashup.Content
	Raw      string                     // mashupContent exactly as received
	Sections map[string]json.RawMessage // top-level members of Raw, untouched
	Path     string                     // file written, empty when not saved
}

// Section returns a top-level member of the content as the platform sent
// it, or fallback when the platform sent none.
func (ins *Inspection) Section(key string, fallback json.RawMessage) json.RawMessage {
	if raw, ok := ins.Sections[key]; ok && string(raw) != "null" {
		return raw
	}
	return fallback
}

// InspectFileName returns the local file name used for a saved inspection.
func InspectFileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
	return "mashup_" + safe + "_example.json"
}

// InspectMashup fetches a mashup and decodes its content. With Save set the
// content is written indented to SaveDir; with a recorder configured it is
// also kept as the mashup's snapshot.
func (d *Deployer) InspectMashup(ctx context.Context, name string, opts InspectOptions) (*Inspection, error) {
	doc, err := d.api.GetMashup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", name, err)
	}

	ins := &Inspection{Name: name, Content: doc.Content, Raw: doc.RawContent}
	if err := json.Unmarshal([]byte(doc.RawContent), &ins.Sections); err != nil {
		return nil, fmt.Errorf("split %s content: %w", name, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(doc.RawContent), "", "  "); err != nil {
		return nil, fmt.Errorf("indent %s content: %w", name, err)
	}

	if opts.Save {
		dir := opts.SaveDir
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(dir, InspectFileName(name))
		if err := os.WriteFile(path, append(pretty.Bytes(), '\n'), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		ins.Path = path
	}

	if d.recorder != nil {
		if err := d.recorder.SaveSnapshot(name, []byte(doc.RawContent)); err != nil {
			d.logger.Warn("save snapshot", "mashup", name, "err", err)
		}
	}

	d.record(uuid.NewString(), events.Event{Type: events.MashupInspected, Name: name, Detail: ins.Path})
	return ins, nil
}
