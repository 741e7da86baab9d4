package catalog

import "mashupctl/internal/mashup"

// Services on the ServiceHelper thing.
const (
	serviceRechner  = "Rechner"
	serviceRechner2 = "Rechner2"
)

// calculatorLayout is the input/input/button/result column both calculator
// mashups share.
func calculatorLayout(title string) mashup.Content {
	return mashup.NewContent(title,
		mashup.FlexContainer("flexcontainer-root", "root-column", mashup.ColumnTop,
			mashup.Panel("flexcontainer-1", "container-input-a",
				mashup.NumericEntry("numericentry-a", "numericentry-a", "Zahl A:"),
			),
			mashup.Panel("flexcontainer-2", "container-input-b",
				mashup.NumericEntry("numericentry-b", "numericentry-b", "Zahl B:"),
			),
			mashup.Panel("flexcontainer-3", "container-button",
				mashup.Button("ptcsbutton-calculate", "btnCalculate", "Berechnen"),
			),
			mashup.Panel("flexcontainer-4", "container-result",
				mashup.Label("ptcslabel-result", "lblResult", "value ergebnis"),
			),
		).With("LastContainer", true),
	)
}

func numberToParameter(param string) mashup.PropertyMap {
	return mashup.PropertyMap{
		SourceProperty:         "Value",
		SourcePropertyType:     mashup.PropertyTypeProperty,
		SourcePropertyBaseType: mashup.BaseTypeNumber,
		TargetProperty:         param,
		TargetPropertyType:     mashup.PropertyTypeParameter,
		TargetPropertyBaseType: mashup.BaseTypeNumber,
	}
}

func resultToParameter(param string) mashup.PropertyMap {
	return mashup.PropertyMap{
		SourceProperty:         "result",
		SourcePropertyType:     mashup.PropertyTypeField,
		SourcePropertyBaseType: mashup.BaseTypeNumber,
		TargetProperty:         param,
		TargetPropertyType:     mashup.PropertyTypeParameter,
		TargetPropertyBaseType: mashup.BaseTypeNumber,
	}
}

// resultToLabel maps a numeric result onto the label text. The platform's
// own export spells the target type in lower case here.
func resultToLabel() mashup.PropertyMap {
	return mashup.PropertyMap{
		SourceProperty:         "result",
		SourcePropertyType:     mashup.PropertyTypeField,
		SourcePropertyBaseType: mashup.BaseTypeNumber,
		TargetProperty:         "LabelText",
		TargetPropertyType:     "property",
		TargetPropertyBaseType: mashup.BaseTypeString,
	}
}

func calculatorContent() mashup.Content {
	c := calculatorLayout("Calculator Mashup")
	c.AddSource(mashup.ThingSource(ServiceHelperThing, mashup.ServiceCall(serviceRechner)))
	c.Events = []mashup.Event{
		mashup.OnWidgetEvent("event-button-invoke-rechner", "ptcsbutton-calculate",
			mashup.EventClicked, ServiceHelperThing, serviceRechner),
	}
	c.DataBindings = []mashup.DataBinding{
		mashup.Bind("binding-input-a-to-service",
			mashup.UIWidget("numericentry-a"), mashup.ServiceInput(ServiceHelperThing, serviceRechner),
			numberToParameter("a")),
		mashup.Bind("binding-input-b-to-service",
			mashup.UIWidget("numericentry-b"), mashup.ServiceInput(ServiceHelperThing, serviceRechner),
			numberToParameter("b")),
		mashup.Bind("binding-service-result-to-label",
			mashup.ServiceResult(ServiceHelperThing, serviceRechner), mashup.UIWidget("ptcslabel-result"),
			resultToLabel()),
	}
	return c
}

func chainedCalculatorContent() mashup.Content {
	c := calculatorLayout("Chained Calculator Mashup")
	c.AddSource(mashup.ThingSource(ServiceHelperThing,
		mashup.ServiceCall(serviceRechner),
		mashup.ServiceCall(serviceRechner2),
	))
	c.Events = []mashup.Event{
		mashup.OnWidgetEvent("event-button-invoke-rechner", "ptcsbutton-calculate",
			mashup.EventClicked, ServiceHelperThing, serviceRechner),
		mashup.OnServiceEvent("event-rechner-complete-invoke-rechner2",
			ServiceHelperThing, serviceRechner, mashup.EventServiceInvokeCompleted,
			ServiceHelperThing, serviceRechner2),
	}
	c.DataBindings = []mashup.DataBinding{
		mashup.Bind("binding-input-a-to-rechner",
			mashup.UIWidget("numericentry-a"), mashup.ServiceInput(ServiceHelperThing, serviceRechner),
			numberToParameter("a")),
		mashup.Bind("binding-input-b-to-rechner",
			mashup.UIWidget("numericentry-b"), mashup.ServiceInput(ServiceHelperThing, serviceRechner),
			numberToParameter("b")),
		mashup.Bind("binding-rechner-result-to-rechner2-c",
			mashup.ServiceResult(ServiceHelperThing, serviceRechner), mashup.ServiceInput(ServiceHelperThing, serviceRechner2),
			resultToParameter("c")),
		mashup.Bind("binding-rechner2-result-to-label",
			mashup.ServiceResult(ServiceHelperThing, serviceRechner2), mashup.UIWidget("ptcslabel-result"),
			resultToLabel()),
	}
	return c
}
