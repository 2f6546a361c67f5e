package extraction

import "github.com/invopop/jsonschema"

// GenerateSchema reflects a Go struct into a JSON schema suitable for
// strict structured outputs: no references, no additional properties.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
