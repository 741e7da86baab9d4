package mashup

import (
	"fmt"
	"sort"
)

// Problem is a reference or structure issue found in content. The platform
// is the authority on what it accepts; problems are advisory.
type Problem struct {
	Where   string
	Message string
}

func (p Problem) String() string {
	return p.Where + ": " + p.Message
}

// Validate checks the widget tree for missing types, duplicate ids and
// children under leaf widgets, and checks that every event and binding
// refers to widgets, data sources and services present in the content.
func Validate(c Content) []Problem {
	var problems []Problem
	add := func(where, format string, args ...any) {
		problems = append(problems, Problem{Where: where, Message: fmt.Sprintf(format, args...)})
	}

	widgets := make(map[string]int)
	Walk(c.UI, func(w Widget, depth int) {
		id := w.ID()
		where := "UI/" + id
		if id == "" {
			where = fmt.Sprintf("UI(depth %d)", depth)
			add(where, "widget has no Id")
		} else {
			widgets[id]++
		}
		if w.Type() == "" {
			add(where, "widget has no Type")
		} else if len(w.Widgets) > 0 && !ContainerTypes[w.Type()] {
			add(where, "%s cannot hold child widgets", w.Type())
		}
	})
	dups := make([]string, 0)
	for id, n := range widgets {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	for _, id := range dups {
		add("UI/"+id, "widget id used %d times", widgets[id])
	}

	hasService := func(source, service string) bool {
		ds, ok := c.Data[source]
		return ok && ds.HasService(service)
	}

	for _, ev := range c.Events {
		where := "Events/" + ev.ID
		switch ev.EventTriggerArea {
		case AreaUI:
			if widgets[ev.EventTriggerID] == 0 {
				add(where, "trigger widget %q not found", ev.EventTriggerID)
			}
		case AreaData:
			if !hasService(ev.EventTriggerSection, ev.EventTriggerID) {
				add(where, "trigger service %s.%s not found", ev.EventTriggerSection, ev.EventTriggerID)
			}
		default:
			add(where, "unknown trigger area %q", ev.EventTriggerArea)
		}
		if !hasService(ev.EventHandlerID, ev.EventHandlerService) {
			add(where, "handler service %s.%s not found", ev.EventHandlerID, ev.EventHandlerService)
		}
	}

	for _, b := range c.DataBindings {
		where := "DataBindings/" + b.ID
		check := func(role, area, section, id string) {
			switch area {
			case AreaUI:
				if widgets[id] == 0 {
					add(where, "%s widget %q not found", role, id)
				}
			case AreaData:
				if !hasService(section, id) {
					add(where, "%s service %s.%s not found", role, section, id)
				}
			default:
				add(where, "unknown %s area %q", role, area)
			}
		}
		check("source", b.SourceArea, b.SourceSection, b.SourceID)
		check("target", b.TargetArea, b.TargetSection, b.TargetID)
		if len(b.PropertyMaps) == 0 {
			add(where, "binding has no property maps")
		}
	}

	return problems
}
