// Package deploy runs the request sequences against the platform: mashup
// upsert with optional pre-delete, thing create-then-enable, and mashup
// inspection. Every call is awaited before the next one is sent.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mashupctl/internal/catalog"
	"mashupctl/internal/events"
	"mashupctl/internal/mashup"
	"mashupctl/internal/store"
	"mashupctl/internal/thingworx"
)

// API is the subset of the platform client the sequences need.
// *thingworx.Client implements it.
type API interface {
	PutMashup(ctx context.Context, e *mashup.Entity) error
	DeleteMashup(ctx context.Context, name string) error
	GetMashup(ctx context.Context, name string) (*thingworx.MashupDocument, error)
	ListThingTemplates(ctx context.Context) ([]thingworx.TemplateRow, error)
	CreateThing(ctx context.Context, req mashup.ThingRequest) error
	EnableThing(ctx context.Context, name string) error
	MashupURL(name string) string
}

// Recorder persists step history and inspection snapshots.
// store.Store implements it.
type Recorder interface {
	SaveDeployment(d *store.Deployment) error
	SaveSnapshot(name string, data []byte) error
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithRecorder records every step.
func WithRecorder(r Recorder) Option {
	return func(d *Deployer) {
		d.recorder = r
	}
}

// WithEvents emits every step on bus.
func WithEvents(bus *events.Bus) Option {
	return func(d *Deployer) {
		d.events = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// Deployer runs deploy sequences.
type Deployer struct {
	api      API
	recorder Recorder
	events   *events.Bus
	logger   *slog.Logger
}

// New creates a Deployer on top of api.
func New(api API, opts ...Option) *Deployer {
	d := &Deployer{
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "deploy")
	return d
}

// Options tune a mashup push.
type Options struct {
	// DeleteFirst overrides the definition's delete-first flag when set.
	DeleteFirst *bool
}

// Bool returns a pointer to v, for Options.DeleteFirst.
func Bool(v bool) *bool { return &v }

// Result describes a successful push.
type Result struct {
	Name    string `json:"name"`
	ViewURL string `json:"view_url"`
	Deleted bool   `json:"deleted"` // the pre-delete succeeded
}

// PushMashup uploads def, removing a previous version first when
// delete-first applies. A failed PUT after a successful DELETE leaves the
// mashup absent; there is no rollback.
func (d *Deployer) PushMashup(ctx context.Context, def *catalog.Definition, opts Options) (*Result, error) {
	if def.Kind != catalog.KindMashup {
		return nil, fmt.Errorf("%s is a %s, not a mashup", def.Name, def.Kind)
	}
	entity, err := def.Entity()
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	res := &Result{Name: def.Name}

	deleteFirst := def.DeleteFirst
	if opts.DeleteFirst != nil {
		deleteFirst = *opts.DeleteFirst
	}
	if deleteFirst {
		// Best effort: a missing mashup is the common case, so the error
		// is logged and dropped.
		if err := d.api.DeleteMashup(ctx, def.Name); err != nil {
			d.logger.Debug("pre-delete ignored", "mashup", def.Name, "status", thingworx.StatusCode(err), "err", err)
		} else {
			res.Deleted = true
			d.record(run, events.Event{Type: events.MashupDeleted, Name: def.Name})
		}
	}

	if err := d.api.PutMashup(ctx, entity); err != nil {
		d.record(run, failure(events.PushFailed, def.Name, err))
		return nil, fmt.Errorf("push %s: %w", def.Name, err)
	}

	res.ViewURL = d.api.MashupURL(def.Name)
	d.record(run, events.Event{Type: events.MashupPushed, Name: def.Name, Detail: res.ViewURL})
	d.logger.Info("mashup pushed", "mashup", def.Name, "deleted_first", res.Deleted)
	return res, nil
}

// Delete removes a mashup. Unlike the pre-delete of a push, errors are
// returned.
func (d *Deployer) Delete(ctx context.Context, name string) error {
	if err := d.api.DeleteMashup(ctx, name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	d.record(uuid.NewString(), events.Event{Type: events.MashupDeleted, Name: name})
	return nil
}

// ThingResult describes the outcome of a thing sequence.
type ThingResult struct {
	Name    string `json:"name"`
	Existed bool   `json:"existed"`
	Enabled bool   `json:"enabled"`
}

// CreateThing creates the thing described by def and then enables it. A
// thing that already exists is not an error; enabling is still attempted.
// An enable failure is returned without retry, together with the partial
// result.
func (d *Deployer) CreateThing(ctx context.Context, def *catalog.Definition) (*ThingResult, error) {
	req, err := def.ThingRequest()
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	res := &ThingResult{Name: req.Name}

	err = d.api.CreateThing(ctx, req)
	switch {
	case err == nil:
		d.record(run, events.Event{Type: events.ThingCreated, Name: req.Name, Detail: req.ThingTemplateName})
	case thingworx.IsAlreadyExists(err):
		res.Existed = true
		d.logger.Info("thing already exists", "thing", req.Name)
		d.record(run, events.Event{Type: events.ThingExists, Name: req.Name, Status: thingworx.StatusCode(err)})
	default:
		d.record(run, failure(events.ThingFailed, req.Name, err))
		return nil, fmt.Errorf("create thing %s: %w", req.Name, err)
	}

	if err := d.api.EnableThing(ctx, req.Name); err != nil {
		d.record(run, failure(events.ThingFailed, req.Name, err))
		return res, fmt.Errorf("enable thing %s: %w", req.Name, err)
	}
	res.Enabled = true
	d.record(run, events.Event{Type: events.ThingEnabled, Name: req.Name})
	return res, nil
}

// ListTemplates returns the names of thing templates containing filter.
// An empty filter returns every template.
func (d *Deployer) ListTemplates(ctx context.Context, filter string) ([]string, error) {
	rows, err := d.api.ListThingTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list thing templates: %w", err)
	}
	var names []string
	for _, r := range rows {
		if strings.Contains(r.Name, filter) {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

// record emits ev and stores it as a deployment step. Recording failures
// are logged only.
func (d *Deployer) record(run string, ev events.Event) {
	ev.RunID = run
	ev.Time = time.Now()
	d.events.Emit(ev)
	if d.recorder == nil {
		return
	}
	err := d.recorder.SaveDeployment(&store.Deployment{
		RunID:  ev.RunID,
		Name:   ev.Name,
		Action: ev.Type,
		Status: ev.Status,
		Detail: ev.Detail,
		Time:   ev.Time,
	})
	if err != nil {
		d.logger.Warn("record deployment", "name", ev.Name, "action", ev.Type, "err", err)
	}
}

func failure(typ, name string, err error) events.Event {
	ev := events.Event{Type: typ, Name: name, Status: thingworx.StatusCode(err), Detail: err.Error()}
	var apiErr *thingworx.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		ev.Detail = apiErr.Body
	}
	return ev
}
