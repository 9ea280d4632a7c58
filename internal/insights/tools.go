package insights

// ToolDefinition describes one agent-invocable tool in the JSON-schema
// function format agent runtimes consume.
type ToolDefinition struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// timeframeProperties are the shared timeframe/filter parameters every
// analytics tool accepts.
func timeframeProperties() map[string]any {
	return map[string]any{
		"start": map[string]any{
			"type":        "integer",
			"description": "Window start as epoch seconds. Omit to use the relative timeframe or the default 24h window.",
		},
		"end": map[string]any{
			"type":        "integer",
			"description": "Window end as epoch seconds.",
		},
		"timeframe": map[string]any{
			"type":        "string",
			"description": "Relative window phrase such as 'last 7 days' or 'last 12 hours'. Ignored when start/end are given.",
		},
		"filters": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Dimension filters in dimension:value form, e.g. operating_system:iOS.",
		},
	}
}

// ToolDefinitions lists the tools an external agent runtime can invoke
// against this service.
var ToolDefinitions = []ToolDefinition{
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "get_streaming_metrics",
			Description: "Fetch overall streaming quality-of-experience metrics for a timeframe and return a health assessment with issues, recommendations, and a text summary.",
			Parameters:  toolParams(timeframeProperties(), nil),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "list_errors",
			Description: "List the aggregated playback errors observed in a timeframe, with counts and percentages.",
			Parameters:  toolParams(timeframeProperties(), nil),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "list_video_views",
			Description: "List individual viewer sessions in a timeframe, including experience scores and watch time.",
			Parameters: toolParams(
				merge(timeframeProperties(), map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of views to return (default 25).",
					},
				}),
				nil,
			),
		},
	},
	{
		Type: "function",
		Function: ToolFunction{
			Name:        "get_metric_breakdown",
			Description: "Break one metric down by a dimension (e.g. video_startup_time by country) over a timeframe.",
			Parameters: toolParams(
				merge(timeframeProperties(), map[string]any{
					"metric_id": map[string]any{
						"type":        "string",
						"description": "Metric to break down, e.g. video_startup_time.",
					},
					"group_by": map[string]any{
						"type":        "string",
						"description": "Dimension to group by, e.g. country or operating_system.",
					},
				}),
				[]string{"metric_id", "group_by"},
			),
		},
	},
}

func toolParams(properties map[string]any, required []string) map[string]any {
	params := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return params
}

func merge(base, extra map[string]any) map[string]any {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
