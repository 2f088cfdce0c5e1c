// pkg/registry/schema.go
package registry

// Document is the on-disk shape of the canonical tables. All keys and values
// are free-form text in the file; Build normalizes them before use.
type Document struct {
	Version           string            `json:"version"`
	States            []string          `json:"states"`
	StateAliases      map[string]string `json:"stateAliases"`
	Cities            map[string]string `json:"cities"`          // city -> state
	PincodePrefixes   map[string]string `json:"pincodePrefixes"` // first 3 digits -> state
	Commodities       []string          `json:"commodities"`
	CommoditySynonyms map[string]string `json:"commoditySynonyms"` // typo/synonym -> canonical
}

// documentSchema validates a tables document before it is trusted. Pincode
// prefixes must be exactly three digits; alias and synonym targets are checked
// against the states/commodities lists in Build, not here.
const documentSchema = `{
  "type": "object",
  "required": ["version", "states", "cities", "pincodePrefixes", "commodities"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "states": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 2}
    },
    "stateAliases": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 2}
    },
    "cities": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 2}
    },
    "pincodePrefixes": {
      "type": "object",
      "patternProperties": {
        "^[1-9][0-9]{2}$": {"type": "string", "minLength": 2}
      },
      "additionalProperties": false
    },
    "commodities": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 2}
    },
    "commoditySynonyms": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 2}
    }
  }
}`
