package catalog

import (
	"mashupctl/internal/mashup"
)

// Built-in definition names.
const (
	TestMashup              = "antigravity.test-mu"
	HelloWorldVertical      = "antigravity.hello-world-vertical-mu"
	ComplexLayout           = "antigravity.complex-layout-mu"
	BorderSwitch            = "antigravity.border-switch-mu"
	NumericTransfer         = "antigravity.numeric-transfer-mu"
	WidgetTest              = "antigravity.widget-test-mu"
	Calculator              = "antigravity.calculator-mu"
	ChainedCalculator       = "antigravity.chained-calculator-mu"
	ToolsThing              = "Antigravity.Tools"
	BorderSwitchMaster      = "antigravity.Master-mm"
	ServiceHelperThing      = "ServiceHelper"
	DefaultThingTemplate    = "GenericThing"
	DefaultInspectionMashup = "hs.rechner-mu"
)

// Builtin returns a registry holding the built-in definitions.
func Builtin() *Registry {
	r := NewRegistry()
	for _, d := range builtins() {
		d.Source = SourceBuiltin
		r.Add(d)
	}
	return r
}

func static(build func() mashup.Content) func() (mashup.Content, error) {
	return func() (mashup.Content, error) { return build(), nil }
}

func builtins() []Definition {
	return []Definition{
		{
			Name:        TestMashup,
			Kind:        KindMashup,
			Description: "Test mashup created by Antigravity Agent",
			Extended:    true,
			content:     static(testContent),
		},
		{
			Name:        HelloWorldVertical,
			Kind:        KindMashup,
			Description: "Hello World Vertical Mashup",
			content:     static(helloWorldVerticalContent),
		},
		{
			Name:        ComplexLayout,
			Kind:        KindMashup,
			Description: "Complex Layout Mashup (Left/Right Fixed Static 150px, Center Split)",
			DeleteFirst: true,
			content:     static(complexLayoutContent),
		},
		{
			Name:        BorderSwitch,
			Kind:        KindMashup,
			Description: "Border Layout Mashup with Switch",
			content:     static(borderSwitchContent),
		},
		{
			Name:        NumericTransfer,
			Kind:        KindMashup,
			Description: "Numeric Transfer Mashup with 3 vertical containers",
			DeleteFirst: true,
			content:     static(numericTransferContent),
		},
		{
			Name:        WidgetTest,
			Kind:        KindMashup,
			Description: "Widget Test Mashup with 5 vertical containers",
			DeleteFirst: true,
			content:     static(widgetTestContent),
		},
		{
			Name:        Calculator,
			Kind:        KindMashup,
			Description: "Interactive Calculator Mashup with ServiceHelper.Rechner service",
			DeleteFirst: true,
			Summary: []string{
				`Numeric Input: "Zahl A:" (NUMBER type)`,
				`Numeric Input: "Zahl B:" (NUMBER type)`,
				`Button: "Berechnen"`,
				`Label: "value ergebnis"`,
				`Service: ServiceHelper.Rechner`,
				`3 Data Bindings (with correct Parameter/Field types)`,
				`1 Event Binding (button click -> service invocation)`,
			},
			content: static(calculatorContent),
		},
		{
			Name:        ChainedCalculator,
			Kind:        KindMashup,
			Description: "Chained Calculator Mashup with Rechner -> Rechner2 service chain",
			DeleteFirst: true,
			Summary: []string{
				`Numeric Input: "Zahl A:" (NUMBER)`,
				`Numeric Input: "Zahl B:" (NUMBER)`,
				`Button: "Berechnen"`,
				`Label: "value ergebnis"`,
				`Service Chain: Rechner -> Rechner2`,
				`Data Flow: Zahl A -> Rechner.a, Zahl B -> Rechner.b, Rechner.result -> Rechner2.c, Rechner2.result -> Label`,
				`Event Flow: Button Click -> Rechner, Rechner.ServiceInvokeCompleted -> Rechner2`,
			},
			content: static(chainedCalculatorContent),
		},
		{
			Name:        ToolsThing,
			Kind:        KindThing,
			Description: "Tools for Antigravity Agent",
			Template:    DefaultThingTemplate,
		},
	}
}

// testContent is the absolutely positioned layout with a single centered
// label.
func testContent() mashup.Content {
	empty := ""
	return mashup.Content{
		UI: mashup.Widget{
			Properties: mashup.Properties{
				"Area":                       mashup.AreaMashup,
				"Style":                      "DefaultMashupStyle",
				"ShowDataLoading":            true,
				"Visible":                    true,
				"Z-index":                    10,
				"Id":                         "mashup-root",
				"DisplayName":                "Mashup",
				"Top":                        0,
				"Left":                       0,
				"supportsAutoResize":         true,
				"id_index":                   2,
				"Type":                       mashup.TypeMashup,
				"__TypeDisplayName":          "Mashup",
				"Width":                      1024,
				"Height":                     618,
				"MinWidth":                   0,
				"MinHeight":                  0,
				"IgnoreWarningsInViewMashup": false,
				"ResponsiveLayout":           true,
				"Title":                      "",
				"TitleBar":                   false,
				"TitleBarText":               "Gadget Title Here",
				"MashupToEditGadget":         "DefaultMashupToEditGadget",
				"EnableParameterEditing":     false,
				"Columns":                    0,
				"Rows":                       0,
				"TitleBarStyle":              "DefaultTitleBarStyle",
				"AddToDashboardButtonStyle":  "DefaultAddToDashboardButtonStyle",
				"ConfigureGadgetButtonStyle": "DefaultConfigureGadgetButtonStyle",
				"BGImageRepeat":              "no-repeat",
				"BGImageSize":                "auto",
				"IsPrintLayout":              false,
				"UseThemeForHybrids":         false,
				"StyleTheme":                 "PTC Convergence Theme",
			},
			Widgets: []mashup.Widget{{
				Properties: mashup.Properties{
					"Id":          "Label-1",
					"Type":        mashup.TypeLegacyLabel,
					"DisplayName": "lblHelloWorld",
					"Text":        "Hello World",
					"Style":       "DefaultLabelStyle",
					"Visible":     true,
					"Width":       200,
					"Height":      30,
					"Top":         294,
					"Left":        412,
					"Z-index":     100,
					"Alignment":   "center",
				},
			}},
		},
		Data:                  mashup.DefaultData(),
		Events:                []mashup.Event{},
		DataBindings:          []mashup.DataBinding{},
		DesignTimePermissions: &mashup.Permissions{},
		RunTimePermissions:    &mashup.Permissions{},
		CustomMashupCSS:       &empty,
		MashupType:            mashup.TypeMashup,
	}
}

func helloWorldVerticalContent() mashup.Content {
	label := func(id, name, text string) mashup.Widget {
		return mashup.Label(id, name, text).With("__TypeDisplayName", "Label")
	}
	return mashup.NewContent("Hello World Vertical Mashup",
		mashup.FlexContainer("flexcontainer-root", "root-container", mashup.ColumnCentered,
			mashup.FlexContainer("flexcontainer-top", "container-hello", mashup.ColumnCentered,
				label("ptcslabel-hello", "lblHello", "Hello"),
			),
			mashup.FlexContainer("flexcontainer-bottom", "container-world", mashup.ColumnCentered,
				label("ptcslabel-world", "lblWorld", "World"),
			),
		).With("LastContainer", true),
	)
}

func complexLayoutContent() mashup.Content {
	return mashup.NewContent("Complex Layout Mashup",
		mashup.FlexContainer("flexcontainer-root", "root-row", mashup.RowStretch,
			mashup.FixedContainer("flexcontainer-left", "container-left-fixed", mashup.Horizontal, 150),
			mashup.FlexContainer("flexcontainer-middle", "container-middle-flex", mashup.ColumnStretch,
				mashup.FlexContainer("flexcontainer-mid-top", "container-hello", mashup.ColumnCentered,
					mashup.Label("ptcslabel-hello", "", "Hello"),
				),
				mashup.FlexContainer("flexcontainer-mid-bottom", "container-world", mashup.ColumnCentered,
					mashup.Label("ptcslabel-world", "", "World"),
				),
			),
			mashup.FixedContainer("flexcontainer-right", "container-right-fixed", mashup.Horizontal, 150),
		).With("LastContainer", true),
	)
}

func borderSwitchContent() mashup.Content {
	c := mashup.NewContent("Border Layout Switch Mashup",
		mashup.FlexContainer("flexcontainer-root", "root-column", mashup.ColumnStretch,
			mashup.FixedContainer("flexcontainer-top", "container-top", mashup.Vertical, 100),
			mashup.FlexContainer("flexcontainer-middle-row", "container-middle-row", mashup.RowStretch,
				mashup.FixedContainer("flexcontainer-left", "container-left", mashup.Horizontal, 100),
				mashup.FlexContainer("flexcontainer-center", "container-center", mashup.ColumnCentered,
					mashup.Radio("ptcsradio-switch", "RadioSwitch", "An/Aus").
						With("__TypeDisplayName", "Radio Button").
						With("Height", 34),
				),
				mashup.FixedContainer("flexcontainer-right", "container-right", mashup.Horizontal, 100),
			),
			mashup.FixedContainer("flexcontainer-bottom", "container-bottom", mashup.Vertical, 100),
		).With("LastContainer", true),
	)
	c.UI = c.UI.With("Master", BorderSwitchMaster)
	return c
}

func numericTransferContent() mashup.Content {
	c := mashup.NewContent("Numeric Transfer Mashup",
		mashup.FlexContainer("flexcontainer-root", "root-column", mashup.ColumnTop,
			mashup.Panel("flexcontainer-1", "container-numeric",
				mashup.NumericEntry("numericentry-1", "numeric-input-1", "Numeric Input"),
			),
			mashup.Panel("flexcontainer-2", "container-button",
				mashup.Button("ptcsbutton-1", "btnTransfer", "übertragen"),
			),
			mashup.Panel("flexcontainer-3", "container-label",
				mashup.Label("ptcslabel-1", "lblValue", "value"),
			),
		).With("LastContainer", true),
	)
	to := mashup.UIWidget("ptcslabel-1")
	to.Section = "Properties"
	c.DataBindings = []mashup.DataBinding{
		mashup.Bind("binding-numeric-to-label", mashup.UIWidget("numericentry-1"), to, mashup.PropertyMap{
			SourceProperty:     "Value",
			SourcePropertyType: mashup.PropertyTypeProperty,
			TargetProperty:     "LabelText",
			TargetPropertyType: mashup.PropertyTypeProperty,
		}),
	}
	return c
}

func widgetTestContent() mashup.Content {
	return mashup.NewContent("Widget Test Mashup",
		mashup.FlexContainer("flexcontainer-root", "root-column", mashup.ColumnTop,
			mashup.Panel("flexcontainer-1", "container-text",
				mashup.TextField("ptcstextfield-1", "Text Field"),
			),
			mashup.Panel("flexcontainer-2", "container-numeric",
				mashup.NumericEntry("numericentry-1", "numericentry-1", "Numeric Input"),
			),
			mashup.Panel("flexcontainer-3", "container-button",
				mashup.Widget{Properties: mashup.Properties{
					"Type":    mashup.TypeButton,
					"Id":      "ptcsbutton-1",
					"Label":   "Click Me",
					"Visible": true,
				}},
			),
			mashup.Panel("flexcontainer-4", "container-radio",
				mashup.Radio("ptcsradio-1", "ptcsradio-1", "Radio Option"),
			),
			mashup.Panel("flexcontainer-5", "container-toggle",
				mashup.ToggleButton("ptcstogglebutton-1", "Toggle"),
			),
		).With("LastContainer", true),
	)
}
