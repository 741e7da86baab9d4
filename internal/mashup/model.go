// Package mashup models the documents the platform stores for a Mashup:
// the widget tree, data sources, event wirings and data bindings that make
// up the mashup content, and the entity envelope the content is shipped in.
//
// JSON field names follow the platform's REST payloads verbatim, which is
// why the tags mix PascalCase (content) and camelCase (entity).
package mashup

import (
	"encoding/json"
	"fmt"
)

// Areas used by events and bindings.
const (
	AreaUI     = "UI"
	AreaData   = "Data"
	AreaMashup = "Mashup"
)

// Property kinds in a PropertyMap.
const (
	PropertyTypeProperty  = "Property"
	PropertyTypeField     = "Field"
	PropertyTypeParameter = "Parameter"
)

// Base types.
const (
	BaseTypeNumber  = "NUMBER"
	BaseTypeString  = "STRING"
	BaseTypeBoolean = "BOOLEAN"
)

// Properties is a widget's property bag: type tag, id and layout attributes.
type Properties map[string]any

// Widget is a node of the UI tree.
type Widget struct {
	Properties Properties `json:"Properties"`
	Widgets    []Widget   `json:"Widgets"`
}

// MarshalJSON always writes Widgets as an array so leaves carry "[]".
func (w Widget) MarshalJSON() ([]byte, error) {
	type plain Widget
	p := plain(w)
	if p.Properties == nil {
		p.Properties = Properties{}
	}
	if p.Widgets == nil {
		p.Widgets = []Widget{}
	}
	return json.Marshal(p)
}

// Type returns the widget's Type property.
func (w Widget) Type() string {
	s, _ := w.Properties["Type"].(string)
	return s
}

// ID returns the widget's Id property.
func (w Widget) ID() string {
	s, _ := w.Properties["Id"].(string)
	return s
}

// With sets a property and returns the widget for chaining.
func (w Widget) With(key string, value any) Widget {
	if w.Properties == nil {
		w.Properties = Properties{}
	}
	w.Properties[key] = value
	return w
}

// Walk visits w and every descendant depth-first, parents before children.
func Walk(w Widget, fn func(w Widget, depth int)) {
	walk(w, 0, fn)
}

func walk(w Widget, depth int, fn func(Widget, int)) {
	fn(w, depth)
	for _, c := range w.Widgets {
		walk(c, depth+1, fn)
	}
}

// Service is a remote service exposed by a data source.
type Service struct {
	ID              string         `json:"Id"`
	Name            string         `json:"Name"`
	Characteristic  string         `json:"Characteristic"`
	Target          string         `json:"Target"`
	APIMethod       string         `json:"APIMethod"`
	RefreshInterval int            `json:"RefreshInterval"`
	Parameters      map[string]any `json:"Parameters"`
}

// DataSource is a named entry of the content's Data section.
type DataSource struct {
	DataName   string    `json:"DataName"`
	EntityName string    `json:"EntityName"`
	EntityType string    `json:"EntityType"`
	ID         string    `json:"Id"`
	Services   []Service `json:"Services"`
}

// HasService reports whether the source exposes a service with that name.
func (d DataSource) HasService(name string) bool {
	for _, s := range d.Services {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Event wires a trigger (UI widget event or data service event) to a
// service invocation on a data source.
type Event struct {
	ID                  string `json:"Id"`
	EventTriggerArea    string `json:"EventTriggerArea"`
	EventHandlerArea    string `json:"EventHandlerArea"`
	EventTriggerSection string `json:"EventTriggerSection"`
	EventTriggerID      string `json:"EventTriggerId"`
	EventTriggerEvent   string `json:"EventTriggerEvent"`
	EventHandlerID      string `json:"EventHandlerId"`
	EventHandlerService string `json:"EventHandlerService"`
}

// PropertyMap is one source-to-target property flow inside a binding.
type PropertyMap struct {
	SourceProperty         string `json:"SourceProperty"`
	SourcePropertyType     string `json:"SourcePropertyType"`
	SourcePropertyBaseType string `json:"SourcePropertyBaseType,omitempty"`
	TargetProperty         string `json:"TargetProperty"`
	TargetPropertyType     string `json:"TargetPropertyType"`
	TargetPropertyBaseType string `json:"TargetPropertyBaseType,omitempty"`
}

// DataBinding connects properties of a source element to a target element.
type DataBinding struct {
	ID            string        `json:"Id"`
	SourceID      string        `json:"SourceId"`
	SourceArea    string        `json:"SourceArea"`
	SourceSection string        `json:"SourceSection"`
	SourceDetails string        `json:"SourceDetails"`
	TargetArea    string        `json:"TargetArea"`
	TargetSection string        `json:"TargetSection"`
	TargetID      string        `json:"TargetId"`
	PropertyMaps  []PropertyMap `json:"PropertyMaps"`
}

// Permissions is a free-form permission block.
type Permissions map[string]any

// Content is the mashup content: the document serialized into the entity's
// mashupContent string.
type Content struct {
	UI                    Widget                `json:"UI"`
	Data                  map[string]DataSource `json:"Data"`
	Events                []Event               `json:"Events"`
	DataBindings          []DataBinding         `json:"DataBindings"`
	DesignTimePermissions *Permissions          `json:"DesignTimePermissions,omitempty"`
	RunTimePermissions    *Permissions          `json:"RunTimePermissions,omitempty"`
	CustomMashupCSS       *string               `json:"CustomMashupCss,omitempty"`
	MashupType            string                `json:"mashupType"`
}

// MarshalJSON writes empty collections as {} and [] rather than null.
func (c Content) MarshalJSON() ([]byte, error) {
	type plain Content
	p := plain(c)
	if p.Data == nil {
		p.Data = map[string]DataSource{}
	}
	if p.Events == nil {
		p.Events = []Event{}
	}
	if p.DataBindings == nil {
		p.DataBindings = []DataBinding{}
	}
	return json.Marshal(p)
}

// Encode returns the content as the JSON string the entity carries.
func (c Content) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode mashup content: %w", err)
	}
	return string(data), nil
}

// DecodeContent parses a mashupContent string.
func DecodeContent(s string) (Content, error) {
	var c Content
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Content{}, fmt.Errorf("decode mashup content: %w", err)
	}
	return c, nil
}

// WidgetCount returns the number of widgets in the tree, root included.
func (c Content) WidgetCount() int {
	n := 0
	Walk(c.UI, func(Widget, int) { n++ })
	return n
}
