package fetchers

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rickchristie/ghost"
)

// suggestionSchemaJSON describes the structured payload the generation
// side is asked to produce.
const suggestionSchemaJSON = `{
	"type": "object",
	"properties": {
		"completion": {"type": "string"},
		"plan": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["completion"]
}`

var (
	schemaOnce       sync.Once
	suggestionSchema *jsonschema.Schema
)

// compiledSchema compiles the payload schema once. The schema text is a
// package constant, so compilation cannot fail at runtime; a broken
// edit to it fails fast instead.
func compiledSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(suggestionSchemaJSON))
		if err != nil {
			panic("fetchers: invalid suggestion schema: " + err.Error())
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("suggestion.json", doc); err != nil {
			panic("fetchers: failed to add suggestion schema: " + err.Error())
		}

		compiled, err := compiler.Compile("suggestion.json")
		if err != nil {
			panic("fetchers: failed to compile suggestion schema: " + err.Error())
		}
		suggestionSchema = compiled
	})
	return suggestionSchema
}

type suggestionPayload struct {
	Completion string   `json:"completion"`
	Plan       []string `json:"plan"`
}

// Decode turns a raw generation response into a suggestion. The
// response is expected to be JSON with completion and plan fields,
// optionally wrapped in a fenced code block; anything that is not is
// used verbatim as the completion with an empty plan. Returns nil for a
// blank response.
func Decode(raw string) *ghost.Suggestion {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil
	}

	if sugg := decodeStructured(unfence(content)); sugg != nil {
		return sugg
	}

	return &ghost.Suggestion{Completion: content}
}

// decodeStructured validates and parses a structured payload. Returns
// nil when the body is not valid structured data; the caller falls back
// to raw text.
func decodeStructured(body string) *ghost.Suggestion {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return nil
	}
	if err := compiledSchema().Validate(doc); err != nil {
		return nil
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil
	}

	return &ghost.Suggestion{
		Completion: payload.Completion,
		Plan:       payload.Plan,
	}
}

// unfence strips a surrounding markdown code fence. Content that is not
// fully fenced is returned unchanged.
func unfence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	rest := s[3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return s
	}
	rest = rest[nl+1:] // drop the opening fence and its language tag

	end := strings.LastIndex(rest, "```")
	if end < 0 {
		return s
	}
	return strings.TrimSpace(rest[:end])
}
