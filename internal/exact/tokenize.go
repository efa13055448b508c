package exact

import (
	"regexp"
	"strings"
)

// placeholderPattern matches entity placeholders such as QUOTED_STRING_0.
var placeholderPattern = regexp.MustCompile(`^[A-Z]+(_[A-Z]+)*_[0-9]+$`)

// IsPlaceholder reports whether tok stands for an entity value.
func IsPlaceholder(tok string) bool {
	return placeholderPattern.MatchString(tok)
}

// Tokenize splits utterance on whitespace and lower-cases every token except
// placeholders.
func Tokenize(utterance string) []string {
	tokens := strings.Fields(utterance)
	for i, tok := range tokens {
		if !IsPlaceholder(tok) {
			tokens[i] = strings.ToLower(tok)
		}
	}
	return tokens
}
