package mashup

// Names of the data sources every mashup carries.
const (
	SourceSession        = "Session"
	SourceUserExtensions = "UserExtensions"
)

// Event names.
const (
	EventClicked                = "Clicked"
	EventServiceInvokeCompleted = "ServiceInvokeCompleted"
)

// DefaultData returns the Session and UserExtensions sources the platform
// adds to every mashup.
func DefaultData() map[string]DataSource {
	return map[string]DataSource{
		SourceSession: {
			DataName:   SourceSession,
			EntityName: "",
			EntityType: "Session",
			ID:         "session",
			Services: []Service{{
				ID:             "SessionInterface",
				Name:           "GetGlobalSessionValues",
				Characteristic: "Services",
				Target:         "GetGlobalSessionValues",
				APIMethod:      "post",
				Parameters:     map[string]any{},
			}},
		},
		SourceUserExtensions: {
			DataName:   SourceUserExtensions,
			EntityName: "",
			EntityType: "UserExtensions",
			ID:         "UserExtensions",
			Services: []Service{{
				ID:             "UserExtensionInterface",
				Name:           "GetCurrentUserExtensionProperties",
				Characteristic: "Services",
				Target:         "GetCurrentUserExtensionProperties",
				APIMethod:      "post",
				Parameters:     map[string]any{},
			}},
		},
	}
}

// ServiceCall returns a service entry invoking name via POST.
func ServiceCall(name string) Service {
	return Service{
		ID:             name + "Service",
		Name:           name,
		Characteristic: "Services",
		Target:         name,
		APIMethod:      "post",
		Parameters:     map[string]any{},
	}
}

// ThingSource returns a data source backed by the Thing named thing.
func ThingSource(thing string, services ...Service) DataSource {
	return DataSource{
		DataName:   thing,
		EntityName: thing,
		EntityType: "Things",
		ID:         thing,
		Services:   services,
	}
}

// NewContent returns content with a responsive root holding children and
// the default data sources.
func NewContent(title string, children ...Widget) Content {
	return Content{
		UI:           Root(title, children...),
		Data:         DefaultData(),
		Events:       []Event{},
		DataBindings: []DataBinding{},
		MashupType:   TypeMashup,
	}
}

// AddSource registers a data source under its DataName.
func (c *Content) AddSource(src DataSource) {
	if c.Data == nil {
		c.Data = DefaultData()
	}
	c.Data[src.DataName] = src
}

// OnWidgetEvent wires a widget event to a service of a data source.
func OnWidgetEvent(id, widgetID, event, source, service string) Event {
	return Event{
		ID:                  id,
		EventTriggerArea:    AreaUI,
		EventHandlerArea:    AreaData,
		EventTriggerSection: "",
		EventTriggerID:      widgetID,
		EventTriggerEvent:   event,
		EventHandlerID:      source,
		EventHandlerService: service,
	}
}

// OnServiceEvent wires an event raised by one service to another service.
func OnServiceEvent(id, source, service, event, handlerSource, handlerService string) Event {
	return Event{
		ID:                  id,
		EventTriggerArea:    AreaData,
		EventHandlerArea:    AreaData,
		EventTriggerSection: source,
		EventTriggerID:      service,
		EventTriggerEvent:   event,
		EventHandlerID:      handlerSource,
		EventHandlerService: handlerService,
	}
}

// Endpoint is one end of a data binding.
type Endpoint struct {
	Area    string
	Section string
	ID      string
	Details string
}

// UIWidget addresses a widget's properties.
func UIWidget(id string) Endpoint {
	return Endpoint{Area: AreaUI, ID: id}
}

// ServiceInput addresses the parameters of a service.
func ServiceInput(source, service string) Endpoint {
	return Endpoint{Area: AreaData, Section: source, ID: service}
}

// ServiceResult addresses the result rows of a service.
func ServiceResult(source, service string) Endpoint {
	return Endpoint{Area: AreaData, Section: source, ID: service, Details: "AllData"}
}

// Bind connects from to to through the given property maps.
func Bind(id string, from, to Endpoint, maps ...PropertyMap) DataBinding {
	return DataBinding{
		ID:            id,
		SourceID:      from.ID,
		SourceArea:    from.Area,
		SourceSection: from.Section,
		SourceDetails: from.Details,
		TargetArea:    to.Area,
		TargetSection: to.Section,
		TargetID:      to.ID,
		PropertyMaps:  maps,
	}
}
