package mashup

import "fmt"

// Widget type tags recognized by the platform.
const (
	TypeMashup        = "mashup"
	TypeFlexContainer = "flexcontainer"
	TypeLabel         = "ptcslabel"
	TypeLegacyLabel   = "Label"
	TypeNumericEntry  = "numericentry"
	TypeButton        = "ptcsbutton"
	TypeTextField     = "ptcstextfield"
	TypeRadio         = "ptcsradio"
	TypeToggleButton  = "ptcstogglebutton"
)

// ContainerTypes are the widget types that may hold children.
var ContainerTypes = map[string]bool{
	TypeMashup:        true,
	TypeFlexContainer: true,
}

// Flex describes how a responsive container lays out its children.
type Flex struct {
	Direction      string // flex-direction: "row" or "column"
	AlignItems     string
	JustifyContent string
}

// Common flows.
var (
	ColumnCentered = Flex{Direction: "column", AlignItems: "center", JustifyContent: "center"}
	ColumnTop      = Flex{Direction: "column", AlignItems: "center", JustifyContent: "flex-start"}
	ColumnStretch  = Flex{Direction: "column", AlignItems: "stretch", JustifyContent: "flex-start"}
	RowStretch     = Flex{Direction: "row", AlignItems: "stretch", JustifyContent: "flex-start"}
)

// Axis selects the dimension a fixed container pins.
type Axis int

const (
	Horizontal Axis = iota // fixed width
	Vertical               // fixed height
)

// Root returns the responsive mashup root widget.
func Root(title string, children ...Widget) Widget {
	return Widget{
		Properties: Properties{
			"Id":                "mashup-root",
			"Type":              TypeMashup,
			"ResponsiveLayout":  true,
			"Width":             1024,
			"Height":            618,
			"Style":             "DefaultMashupStyle",
			"StyleTheme":        "PTC Convergence Theme",
			"Title":             title,
			"Area":              AreaMashup,
			"__TypeDisplayName": "Mashup",
			"Visible":           true,
			"Z-index":           10,
			"Top":               0,
			"Left":              0,
		},
		Widgets: children,
	}
}

// FlexContainer returns a responsive container that grows to fill its
// parent.
func FlexContainer(id, displayName string, flex Flex, children ...Widget) Widget {
	return Widget{
		Properties: Properties{
			"Type":              TypeFlexContainer,
			"__TypeDisplayName": "Responsive Container",
			"Id":                id,
			"DisplayName":       displayName,
			"flex-direction":    flex.Direction,
			"align-items":       flex.AlignItems,
			"justify-content":   flex.JustifyContent,
			"flex-grow":         1,
			"ResponsiveLayout":  true,
		},
		Widgets: children,
	}
}

// Panel is a flex container with the default container style, the wrapper
// every control sits in.
func Panel(id, displayName string, children ...Widget) Widget {
	return FlexContainer(id, displayName, ColumnCentered, children...).
		With("Style", "DefaultContainerStyle")
}

// FixedContainer returns a static container pinned to size pixels along
// axis. It neither grows nor shrinks.
func FixedContainer(id, displayName string, axis Axis, size int, children ...Widget) Widget {
	dim, flexDim := "Width", "width"
	if axis == Vertical {
		dim, flexDim = "Height", "height"
	}
	px := fmt.Sprintf("%dpx", size)
	return Widget{
		Properties: Properties{
			"Type":                TypeFlexContainer,
			"__TypeDisplayName":   "Responsive Container",
			"Id":                  id,
			"DisplayName":         displayName,
			"ResponsiveLayout":    false,
			dim:                   size,
			"Min" + dim:           size,
			"Max" + dim:           size,
			"flex-grow":           0,
			"flex-shrink":         0,
			"flex-basis":          px,
			"flex-min-" + flexDim: px,
			"flex-max-" + flexDim: px,
			"Style":               "DefaultContainerStyle",
		},
		Widgets: children,
	}
}

// Label returns a themed label.
func Label(id, displayName, text string) Widget {
	w := Widget{Properties: Properties{
		"Type":                TypeLabel,
		"Id":                  id,
		"LabelText":           text,
		"HorizontalAlignment": "left",
		"VerticalAlignment":   "flex-start",
		"UseTheme":            true,
		"Visible":             true,
	}}
	if displayName != "" {
		w.Properties["DisplayName"] = displayName
	}
	return w
}

// NumericEntry returns a numeric input starting at 0.
func NumericEntry(id, displayName, label string) Widget {
	return Widget{Properties: Properties{
		"Type":                   TypeNumericEntry,
		"Id":                     id,
		"DisplayName":            displayName,
		"Label":                  label,
		"Value":                  0,
		"Visible":                true,
		"ResponsiveLayout":       false,
		"Width":                  200,
		"Height":                 30,
		"Style":                  "DefaultTextBoxStyle",
		"NumericEntryLabelStyle": "DefaultWidgetLabelStyle",
		"NumericEntryFocusStyle": "DefaultFocusStyle",
	}}
}

// Button returns a primary themed button.
func Button(id, displayName, label string) Widget {
	return Widget{Properties: Properties{
		"Type":        TypeButton,
		"Id":          id,
		"DisplayName": displayName,
		"Label":       label,
		"ButtonType":  "primary",
		"UseTheme":    true,
		"Visible":     true,
	}}
}

// TextField returns an empty text input.
func TextField(id, label string) Widget {
	return Widget{Properties: Properties{
		"Type":    TypeTextField,
		"Id":      id,
		"Label":   label,
		"Text":    "",
		"Visible": true,
	}}
}

// Radio returns a fixed-size radio button.
func Radio(id, displayName, label string) Widget {
	return Widget{Properties: Properties{
		"Type":             TypeRadio,
		"Id":               id,
		"DisplayName":      displayName,
		"Label":            label,
		"Visible":          true,
		"ResponsiveLayout": false,
		"Width":            200,
		"Height":           30,
	}}
}

// ToggleButton returns a toggle button.
func ToggleButton(id, label string) Widget {
	return Widget{Properties: Properties{
		"Type":    TypeToggleButton,
		"Id":      id,
		"Label":   label,
		"Visible": true,
	}}
}
