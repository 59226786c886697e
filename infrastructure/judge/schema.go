package judge

import (
	"encoding/json"

	"github.com/gustycube/erreval/internal/domain"
)

// SchemaName labels the structured-output schema for the endpoint.
const SchemaName = "judge_scores"

// scoresSchema is the JSON Schema the judge endpoint is constrained to:
// an object with exactly the five axis sub-objects, each an integer score
// in [0, 2] plus a non-empty justification, with additionalProperties
// disallowed at every level. Endpoint-side enforcement is never trusted
// alone; parsed output is re-validated against the same shape.
var scoresSchema = mustMarshalSchema()

func mustMarshalSchema() []byte {
	axisSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":    "integer",
				"minimum": domain.MinAxisScore,
				"maximum": domain.MaxAxisScore,
			},
			"justification": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
		},
		"required":             []string{"score", "justification"},
		"additionalProperties": false,
	}

	properties := make(map[string]any, len(domain.Axes))
	required := make([]string, 0, len(domain.Axes))
	for _, axis := range domain.Axes {
		properties[axis.String()] = axisSchema
		required = append(required, axis.String())
	}

	schema, err := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	})
	if err != nil {
		panic(err)
	}
	return schema
}
