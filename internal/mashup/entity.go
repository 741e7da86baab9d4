package mashup

// DefaultProject is the project entities are filed under.
const DefaultProject = "PTCDefaultProject"

// EntityTypeMashups is the entityType of a mashup upsert.
const EntityTypeMashups = "Mashups"

// Entity is the body of a mashup upsert.
type Entity struct {
	EntityType          string                        `json:"entityType"`
	Name                string                        `json:"name"`
	Description         string                        `json:"description"`
	ConfigurationTables map[string]ConfigurationTable `json:"configurationTables"`
	Aspects             Aspects                       `json:"aspects"`
	MashupContent       string                        `json:"mashupContent"`
	ProjectName         string                        `json:"projectName"`

	// Extended metadata the platform's own export carries. Nil for entities
	// that only send the fields above.
	*Metadata
}

// Aspects are the entity-level mashup flags.
type Aspects struct {
	MashupType   string `json:"mashupType"`
	IsResponsive bool   `json:"isResponsive"`
	IsFlex       bool   `json:"isFlex"`
}

// Metadata holds the optional entity fields of a full export.
type Metadata struct {
	DesignTimePermissions map[string][]any `json:"designTimePermissions"`
	RunTimePermissions    map[string][]any `json:"runTimePermissions"`
	DocumentationContent  string           `json:"documentationContent"`
	HomeMashup            string           `json:"homeMashup"`
	Tags                  []any            `json:"tags"`
	Things                []any            `json:"things"`
	ThingTemplates        []any            `json:"thingTemplates"`
	DataShapes            []any            `json:"dataShapes"`
	ThingShapes           []any            `json:"thingShapes"`
	ParameterDefinitions  []any            `json:"parameterDefinitions"`
	IsSystemObject        bool             `json:"isSystemObject"`
	Rows                  int              `json:"rows"`
	Columns               int              `json:"columns"`
	Avatar                string           `json:"avatar"`
}

// EmptyMetadata returns metadata with every list present and empty.
func EmptyMetadata() *Metadata {
	return &Metadata{
		DesignTimePermissions: map[string][]any{"Delete": {}, "Read": {}, "Update": {}, "Create": {}},
		RunTimePermissions:    map[string][]any{"permissions": {}},
		Tags:                  []any{},
		Things:                []any{},
		ThingTemplates:        []any{},
		DataShapes:            []any{},
		ThingShapes:           []any{},
		ParameterDefinitions:  []any{},
	}
}

// ConfigurationTable is an entity configuration table.
type ConfigurationTable struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	IsMultiRow  bool             `json:"isMultiRow"`
	IsHidden    bool             `json:"isHidden"`
	DataShape   DataShape        `json:"dataShape"`
	Rows        []map[string]any `json:"rows"`
}

// DataShape describes the columns of a configuration table.
type DataShape struct {
	Name             string                     `json:"name"`
	Description      string                     `json:"description"`
	FieldDefinitions map[string]FieldDefinition `json:"fieldDefinitions"`
}

// FieldDefinition is one column of a data shape.
type FieldDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	BaseType    string         `json:"baseType"`
	Ordinal     int            `json:"ordinal"`
	Aspects     map[string]any `json:"aspects"`
}

func field(name, baseType string, def any) FieldDefinition {
	return FieldDefinition{
		Name:     name,
		BaseType: baseType,
		Aspects:  map[string]any{"defaultValue": def},
	}
}

// MobileSettings returns the hidden MobileSettings table every mashup
// entity carries.
func MobileSettings() ConfigurationTable {
	return ConfigurationTable{
		Name:     "MobileSettings",
		IsHidden: true,
		DataShape: DataShape{
			FieldDefinitions: map[string]FieldDefinition{
				"initialScale":           field("initialScale", BaseTypeNumber, 1),
				"width":                  field("width", BaseTypeString, "device-width"),
				"height":                 field("height", BaseTypeString, "device-height"),
				"minimumScale":           field("minimumScale", BaseTypeNumber, 0.1),
				"maximumScale":           field("maximumScale", BaseTypeNumber, 10),
				"disableZoom":            field("disableZoom", BaseTypeBoolean, false),
				"fullScreenMode":         field("fullScreenMode", BaseTypeBoolean, true),
				"iosStatusBarAppearance": field("iosStatusBarAppearance", BaseTypeString, "default"),
				"iosShortcutIconTitle":   field("iosShortcutIconTitle", BaseTypeString, ""),
			},
		},
		Rows: []map[string]any{{
			"initialScale":           1,
			"width":                  "device-width",
			"height":                 "device-height",
			"minimumScale":           0.1,
			"maximumScale":           10,
			"disableZoom":            false,
			"fullScreenMode":         true,
			"iosStatusBarAppearance": "black-translucent",
			"iosShortcutIconTitle":   "",
		}},
	}
}

// NewEntity wraps content into an upsert body named name.
func NewEntity(name, description string, content Content) (*Entity, error) {
	encoded, err := content.Encode()
	if err != nil {
		return nil, err
	}
	return &Entity{
		EntityType:  EntityTypeMashups,
		Name:        name,
		Description: description,
		ConfigurationTables: map[string]ConfigurationTable{
			"MobileSettings": MobileSettings(),
		},
		Aspects: Aspects{
			MashupType:   TypeMashup,
			IsResponsive: true,
			IsFlex:       true,
		},
		MashupContent: encoded,
		ProjectName:   DefaultProject,
	}, nil
}

// Content decodes the entity's mashupContent.
func (e *Entity) Content() (Content, error) {
	return DecodeContent(e.MashupContent)
}

// ThingRequest is the body of a CreateThing call.
type ThingRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	ThingTemplateName string `json:"thingTemplateName"`
}
