package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mashupctl/internal/catalog"
	"mashupctl/internal/deploy"
	"mashupctl/internal/mashup"
	"mashupctl/internal/store"
	"mashupctl/internal/thingworx"
)

func newListCommand(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the mashups and things in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tDELETE-FIRST\tSOURCE\tDESCRIPTION")
			for _, d := range a.registry.All(catalog.Kind(kind)) {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", d.Name, d.Kind, d.DeleteFirst, d.Source, d.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list this kind (mashup or thing)")
	return cmd
}

func newRenderCommand(a *app) *cobra.Command {
	var contentOnly bool
	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Print the request body a definition sends, without contacting the platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.lookup(args[0], "")
			if err != nil {
				return err
			}
			if def.Kind == catalog.KindThing {
				req, err := def.ThingRequest()
				if err != nil {
					return err
				}
				return printJSON(a.out, req)
			}
			if contentOnly {
				c, err := def.Content()
				if err != nil {
					return err
				}
				return printJSON(a.out, c)
			}
			e, err := def.Entity()
			if err != nil {
				return err
			}
			return printJSON(a.out, e)
		},
	}
	cmd.Flags().BoolVar(&contentOnly, "content", false, "print the decoded mashup content instead of the entity")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [name...]",
		Short: "Check mashup definitions for dangling ids and malformed widgets",
		Long: `validate checks that every widget has a type and id, that leaf widgets
hold no children, that ids are unique, and that events and bindings only
reference widgets and services present in the same document. The
platform performs none of these checks on upload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.selectMashups(args, len(args) == 0)
			if err != nil {
				return err
			}
			bad := 0
			for _, def := range defs {
				c, err := def.Content()
				if err != nil {
					fmt.Fprintf(a.out, "%s: %v\n", def.Name, err)
					bad++
					continue
				}
				problems := mashup.Validate(c)
				if len(problems) == 0 {
					fmt.Fprintf(a.out, "%s: ok\n", def.Name)
					continue
				}
				bad++
				fmt.Fprintf(a.out, "%s: %d problem(s)\n", def.Name, len(problems))
				for _, p := range problems {
					fmt.Fprintf(a.out, "  - %s\n", p)
				}
			}
			if bad > 0 {
				return errReported
			}
			return nil
		},
	}
}

func newPushCommand(a *app) *cobra.Command {
	var all, deleteFirst, noDeleteFirst, strict bool
	cmd := &cobra.Command{
		Use:   "push <name>... | --all",
		Short: "Create or replace mashups on the platform",
		Long: `push uploads each named mashup with a full replace. Definitions marked
delete-first are removed before the upload; a failure of that delete is
ignored, since the mashup usually does not exist yet. With --all every
catalog mashup is pushed, one after another in name order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.selectMashups(args, all)
			if err != nil {
				return err
			}
			dep, _, err := a.platform()
			if err != nil {
				return err
			}

			var opts deploy.Options
			switch {
			case deleteFirst:
				opts.DeleteFirst = deploy.Bool(true)
			case noDeleteFirst:
				opts.DeleteFirst = deploy.Bool(false)
			}

			failed := 0
			for _, def := range defs {
				if !a.pushOne(cmd.Context(), dep, def, opts, strict) {
					failed++
				}
			}
			if failed > 0 {
				if len(defs) > 1 {
					fmt.Fprintf(a.errOut, "%d of %d mashups failed\n", failed, len(defs))
				}
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "push every mashup in the catalog")
	cmd.Flags().BoolVar(&deleteFirst, "delete-first", false, "delete a previous version first, whatever the definition says")
	cmd.Flags().BoolVar(&noDeleteFirst, "no-delete-first", false, "never delete a previous version first")
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to push mashups that fail validation")
	cmd.MarkFlagsMutuallyExclusive("delete-first", "no-delete-first")
	return cmd
}

// pushOne pushes def and prints the outcome. It reports success.
func (a *app) pushOne(ctx context.Context, dep *deploy.Deployer, def *catalog.Definition, opts deploy.Options, strict bool) bool {
	fmt.Fprintf(a.out, "Creating Mashup: %s...\n", def.Name)

	c, err := def.Content()
	if err != nil {
		fmt.Fprintf(a.errOut, "Failed to build mashup: %v\n", err)
		return false
	}
	if problems := mashup.Validate(c); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(a.errOut, "  warning: %s\n", p)
		}
		if strict {
			fmt.Fprintf(a.errOut, "Not pushing %s: %d validation problem(s)\n", def.Name, len(problems))
			return false
		}
	}

	deleteFirst := def.DeleteFirst
	if opts.DeleteFirst != nil {
		deleteFirst = *opts.DeleteFirst
	}
	if deleteFirst {
		fmt.Fprintf(a.out, "Deleting existing Mashup (if any): %s...\n", def.Name)
	}

	res, err := dep.PushMashup(ctx, def, opts)
	if err != nil {
		printFailure(a.errOut, "Failed to create mashup", err)
		return false
	}

	fmt.Fprintf(a.out, "✓ Mashup '%s' created successfully!\n", res.Name)
	fmt.Fprintf(a.out, "  View it at: %s\n", res.ViewURL)
	if len(def.Summary) > 0 {
		fmt.Fprintln(a.out, "\nMashup includes:")
		for _, line := range def.Summary {
			fmt.Fprintf(a.out, "  - %s\n", line)
		}
	}
	return true
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a mashup from the platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dep, _, err := a.platform()
			if err != nil {
				return err
			}
			name := args[0]
			fmt.Fprintf(a.out, "Deleting Mashup: %s...\n", name)
			if err := dep.Delete(cmd.Context(), name); err != nil {
				printFailure(a.errOut, "Failed to delete mashup", err)
				return errReported
			}
			fmt.Fprintf(a.out, "✓ Mashup '%s' deleted.\n", name)
			return nil
		},
	}
}

func newCreateThingCommand(a *app) *cobra.Command {
	var template, description string
	cmd := &cobra.Command{
		Use:   "create-thing [name]",
		Short: "Create and enable a thing",
		Long: `create-thing creates the named thing from its catalog template and then
enables it. A thing that already exists is reported and still enabled.
Names outside the catalog can be created with --template.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := catalog.ToolsThing
			if len(args) == 1 {
				name = args[0]
			}
			def := a.registry.Lookup(name)
			switch {
			case def == nil && template != "":
				def = &catalog.Definition{Name: name, Kind: catalog.KindThing, Description: description, Template: template}
			case def == nil:
				return fmt.Errorf("unknown thing %q: use --template to create one outside the catalog", name)
			case def.Kind != catalog.KindThing:
				return fmt.Errorf("%s is a %s, not a thing", name, def.Kind)
			}

			dep, _, err := a.platform()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Creating Thing: %s...\n", def.Name)
			res, err := dep.CreateThing(cmd.Context(), def)
			if res != nil {
				if res.Existed {
					fmt.Fprintln(a.out, "Thing already exists.")
				} else {
					fmt.Fprintln(a.out, "Thing created successfully.")
				}
			}
			if err != nil {
				if res != nil {
					printFailure(a.errOut, "Failed to enable Thing", err)
				} else {
					printFailure(a.errOut, "Failed to create Thing", err)
				}
				return errReported
			}
			fmt.Fprintln(a.out, "Thing enabled.")
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "thing template for names not in the catalog")
	cmd.Flags().StringVar(&description, "description", "", "description for names not in the catalog")
	return cmd
}

func newInspectCommand(a *app) *cobra.Command {
	var outDir string
	var noSave bool
	cmd := &cobra.Command{
		Use:   "inspect [name]",
		Short: "Fetch a mashup and print its events, bindings and data sources",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := catalog.DefaultInspectionMashup
			if len(args) == 1 {
				name = args[0]
			}
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}
			dep, _, err := a.platform()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Inspecting Mashup: %s...\n", name)
			ins, err := dep.InspectMashup(cmd.Context(), name, deploy.InspectOptions{Save: !noSave, SaveDir: outDir})
			if err != nil {
				printFailure(a.errOut, "Failed", err)
				return errReported
			}

			for _, section := range []struct {
				title, key, empty string
			}{
				{"EVENTS", "Events", "[]"},
				{"DATA BINDINGS", "DataBindings", "[]"},
				{"DATA SECTION", "Data", "{}"},
			} {
				fmt.Fprintf(a.out, "\n=== %s ===\n", section.title)
				if err := printJSON(a.out, ins.Section(section.key, json.RawMessage(section.empty))); err != nil {
					return err
				}
			}
			if ins.Path != "" {
				fmt.Fprintf(a.out, "\n✓ Saved to %s\n", ins.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory for the saved file (default output_dir)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the content to a file")
	return cmd
}

func newTemplatesCommand(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List thing templates whose name contains a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dep, _, err := a.platform()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Listing ThingTemplates...")
			names, err := dep.ListTemplates(cmd.Context(), filter)
			if err != nil {
				printFailure(a.errOut, "Failed to list templates", err)
				return errReported
			}
			for _, n := range names {
				fmt.Fprintf(a.out, "Template: %s\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "Mashup", "substring a template name must contain; empty lists all")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit  int
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "Show recorded deploy steps, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			if remove && name == "" {
				return errors.New("--clear needs the name whose history to remove")
			}
			db, err := a.requireHistory()
			if err != nil {
				return err
			}
			if remove {
				n, err := db.DeleteDeployments(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed %d history entries for %s\n", n, name)
				return nil
			}
			list, err := db.ListDeployments(name, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tNAME\tSTATUS\tDETAIL")
			for _, d := range list {
				status := "-"
				if d.Status != 0 {
					status = fmt.Sprint(d.Status)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Time.Local().Format(time.DateTime), d.Action, d.Name, status, truncate(d.Detail, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show; 0 shows all")
	cmd.Flags().BoolVar(&remove, "clear", false, "remove the recorded steps of the named entity")
	return cmd
}

func newSnapshotsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots [name]",
		Short: "List the mashups kept by inspect, or print one kept copy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.requireHistory()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				snap, err := db.GetSnapshot(args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no snapshot of %s (run mashupctl inspect %s first)", args[0], args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Snapshot of %s taken %s\n", snap.Name, snap.SavedAt.Local().Format(time.DateTime))
				return printJSON(a.out, snap.Data)
			}

			list, err := db.ListSnapshots()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSAVED")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.SavedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.out, "mashupctl %s\n", version)
		},
	}
}

// lookup finds a definition, optionally requiring a kind.
func (a *app) lookup(name string, kind catalog.Kind) (*catalog.Definition, error) {
	def := a.registry.Lookup(name)
	if def == nil {
		return nil, fmt.Errorf("unknown definition %q (see mashupctl list)", name)
	}
	if kind != "" && def.Kind != kind {
		return nil, fmt.Errorf("%s is a %s, not a %s", name, def.Kind, kind)
	}
	return def, nil
}

// selectMashups resolves command arguments to mashup definitions.
func (a *app) selectMashups(names []string, all bool) ([]*catalog.Definition, error) {
	switch {
	case all && len(names) > 0:
		return nil, errors.New("give mashup names or --all, not both")
	case all:
		return a.registry.All(catalog.KindMashup), nil
	case len(names) == 0:
		return nil, errors.New("name a mashup or use --all")
	}
	defs := make([]*catalog.Definition, 0, len(names))
	for _, n := range names {
		def, err := a.lookup(n, catalog.KindMashup)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// printFailure prints a failed call the way the platform reported it:
// status code, reason phrase, then the response body.
func printFailure(w io.Writer, prefix string, err error) {
	var apiErr *thingworx.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(w, "%s: %d %s\n", prefix, apiErr.StatusCode, apiErr.Status)
		if apiErr.Body != "" {
			fmt.Fprintln(w, apiErr.Body)
		}
		return
	}
	fmt.Fprintf(w, "%s: %v\n", prefix, err)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
