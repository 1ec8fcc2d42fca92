package checkin

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Sana-Rashid-135/coach/internal/ai"
	"github.com/kaptinlin/jsonschema"
)

//go:embed checkin_schema.json
var checkinSchemaJSON []byte

const extractorSystemPrompt = `You extract structured data from short, informal morning check-ins.

Return ONLY strict JSON (no markdown, no prose) with keys: "sleep" (number in hours, e.g., 6.5), "mood" (integer 1-10), "energy" (integer 1-10), and "notes" (string with remaining info). If mood, energy, or sleep is not provided, return null for that field. Keep notes concise.`

// Extractor is the generative fallback for messages the strict parser
// misses. The model output is held to a JSON contract: invalid or empty
// output is an extraction miss, never a pipeline failure.
type Extractor struct {
	generator ai.TextGenerator
	schema    *jsonschema.Schema
	logger    *slog.Logger
}

// NewExtractor compiles the output-contract schema and wires the generator.
func NewExtractor(generator ai.TextGenerator, logger *slog.Logger) (*Extractor, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(checkinSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compile check-in schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{generator: generator, schema: schema, logger: logger}, nil
}

// Extract asks the model to parse the message into check-in JSON and
// enforces the output contract. Returns nil on any failure: provider error,
// empty output, unparsable JSON, output that is not a JSON object, or a
// result with no numeric field and empty notes. Field values of the wrong
// type are coerced leniently: non-numeric sleep/mood/energy and non-string
// notes are treated as not reported, not as contract violations.
func (e *Extractor) Extract(ctx context.Context, message string) *Checkin {
	raw, err := e.generator.Complete(ctx, extractorSystemPrompt, "Parse this check-in: "+message, ai.Options{
		MaxTokens:   120,
		Temperature: 0,
	})
	if err != nil {
		e.logger.Warn("Flexible extraction provider call failed", "error", err.Error())
		return nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// The model occasionally wraps the object in markdown fencing or prose;
	// take the first brace-balanced object substring.
	jsonString := firstJSONObject(raw)
	if jsonString == "" {
		jsonString = raw
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(jsonString), &fields); err != nil {
		e.logger.Warn("Flexible extraction returned unparsable JSON", "error", err.Error())
		return nil
	}

	// The schema pins only the top-level shape; per-field type coercion
	// below is deliberately looser than the prompt's contract.
	if result := e.schema.Validate(fields); !result.IsValid() {
		e.logger.Warn("Flexible extraction violated output schema")
		return nil
	}

	record := &Checkin{
		Sleep:  asFloat(fields["sleep"]),
		Mood:   asRoundedInt(fields["mood"]),
		Energy: asRoundedInt(fields["energy"]),
		Notes:  asNotes(fields["notes"]),
	}

	// Accept only when the model actually extracted something.
	if !record.HasNumeric() && record.Notes == "" {
		return nil
	}

	return record
}

// firstJSONObject returns the first brace-balanced {...} substring, skipping
// braces inside JSON string literals. Empty string when none is found.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// asFloat keeps numeric values and treats anything else (null, strings,
// nested structures) as not reported.
func asFloat(v interface{}) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return floatPtr(f)
}

// asRoundedInt rounds numeric values to the nearest integer; non-numeric
// values are not reported.
func asRoundedInt(v interface{}) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return intPtr(int(math.Round(f)))
}

func asNotes(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
