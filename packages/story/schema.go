package story

// ListSchema is the JSON schema the list endpoint's body must satisfy: a
// non-empty array of story objects.
const ListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "title": {"type": ["string", "null"]},
      "description": {"type": ["string", "null"]},
      "url": {"type": ["string", "null"]}
    }
  }
}`
