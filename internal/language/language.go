// Package language implements a best-effort keyword heuristic for
// classifying a code snippet's programming language.
package language

import "strings"

// Unknown is returned when no language family matches.
const Unknown = "unknown"

// Supported lists the language families the analyzer accepts, in
// detection order.
var Supported = []string{"python", "javascript", "java", "c/c++"}

// families holds the ordered detection rules. The order is load-bearing:
// a snippet matching several keyword sets resolves to the first family
// whose keywords match.
var families = []struct {
	name     string
	keywords []string
}{
	{"python", []string{"def ", "import ", "print("}},
	{"javascript", []string{"const ", "let ", "var ", "function ", "=> ", "require(", "console.log"}},
	{"java", []string{"public class ", "private ", "system.out.println"}},
	{"c/c++", []string{"#include", "printf(", "std::"}},
}

// Detect classifies a snippet by substring matching against ordered
// keyword lists. It has no tokenizer; keywords inside comments or string
// literals can misclassify. Returns Unknown when nothing matches.
func Detect(code string) string {
	lower := strings.ToLower(code)

	for _, f := range families {
		for _, kw := range f.keywords {
			if strings.Contains(lower, kw) {
				return f.name
			}
		}
	}

	return Unknown
}
