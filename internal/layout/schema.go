package layout

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema reflects the export document into a JSON schema so external
// tooling can validate layout files without importing this module.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Document))
	schema.Title = "HUD layout export"
	schema.Description = "Exported hotbar, weapon set, and quick access contents for one subject."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("layout: failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
