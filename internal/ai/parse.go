package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/Anomaly-E-E/Falco/models"
)

// ErrUnparsable reports that the provider's reply contained no usable
// JSON array. Callers that do not care about the distinction from "no
// findings" may map it to an empty list.
var ErrUnparsable = errors.New("no JSON array found in AI response")

// ParseFindings extracts a finding list from the model's free-text
// reply. The reply is untrusted: code-fence markers are stripped, the
// slice between the first '[' and the last ']' is parsed strictly, and
// anything else fails with ErrUnparsable. A reply that parses to an
// empty array is a valid "no findings" result, not an error.
func ParseFindings(text string) ([]models.Vulnerability, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, ErrUnparsable
	}

	var findings []models.Vulnerability
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &findings); err != nil {
		return nil, ErrUnparsable
	}
	if findings == nil {
		findings = []models.Vulnerability{}
	}
	return findings, nil
}
