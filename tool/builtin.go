package tool

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // New York lookups must not depend on the host zoneinfo

	"github.com/hupe1980/agentrouter/core"
)

// Name is a built-in tool name accepted in agent configurations.
type Name string

const (
	// Weather resolves to the get_weather function.
	Weather Name = "weather"
	// Time resolves to the get_current_time function.
	Time Name = "time"
)

// catalog maps built-in names (and their function names) to constructors.
var catalog = map[Name]func() Tool{
	Weather:            NewWeatherTool,
	Time:               NewTimeTool,
	"get_weather":      NewWeatherTool,
	"get_current_time": NewTimeTool,
}

// now is swapped in tests.
var now = time.Now

// Lookup returns a fresh built-in tool for name (case-insensitive).
func Lookup(name string) (Tool, bool) {
	ctor, ok := catalog[Name(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Resolve maps tool references to built-in implementations. Structured
// descriptors and unknown names are returned untouched as passthrough so the
// agent can carry them as opaque data. A built-in referenced twice resolves once.
func Resolve(refs []core.ToolRef) (resolved []Tool, passthrough []core.ToolRef) {
	seen := map[string]bool{}
	for _, ref := range refs {
		if ref.IsDescriptor() {
			passthrough = append(passthrough, ref)
			continue
		}
		t, ok := Lookup(ref.Name)
		if !ok {
			passthrough = append(passthrough, ref)
			continue
		}
		if seen[t.Name()] {
			continue
		}
		seen[t.Name()] = true
		resolved = append(resolved, t)
	}
	return resolved, passthrough
}

var cityArg = Arg{Name: "city", Description: "Name of the city, e.g. New York"}

// NewWeatherTool returns the get_weather built-in.
func NewWeatherTool() Tool {
	return NewFunctionToolWithArgs(
		"get_weather",
		"Retrieves the current weather report for a specified city.",
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			city, _ := args["city"].(string)
			if !isNewYork(city) {
				return errorReport(fmt.Sprintf("Weather information for '%s' is not available.", city)), nil
			}
			return successReport("The weather in New York is sunny with a temperature of 25 degrees Celsius (77 degrees Fahrenheit)."), nil
		},
		cityArg,
	)
}

// NewTimeTool returns the get_current_time built-in.
func NewTimeTool() Tool {
	return NewFunctionToolWithArgs(
		"get_current_time",
		"Returns the current time in a specified city.",
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			city, _ := args["city"].(string)
			if !isNewYork(city) {
				return errorReport(fmt.Sprintf("Sorry, I don't have timezone information for %s.", city)), nil
			}
			loc, err := time.LoadLocation("America/New_York")
			if err != nil {
				return nil, err
			}
			stamp := now().In(loc).Format("2006-01-02 15:04:05 MST-0700")
			return successReport(fmt.Sprintf("The current time in %s is %s", city, stamp)), nil
		},
		cityArg,
	)
}

func isNewYork(city string) bool {
	return strings.EqualFold(strings.TrimSpace(city), "new york")
}

func successReport(report string) map[string]any {
	return map[string]any{"status": "success", "report": report}
}

func errorReport(msg string) map[string]any {
	return map[string]any{"status": "error", "error_message": msg}
}
