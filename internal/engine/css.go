package engine

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is one property/value pair of a generated rule.
type Declaration struct {
	Property string
	Value    string
}

// parseDeclarations extracts declarations from a call body in source order.
// Only literal values are considered: quoted strings and bare numbers; nested
// variant groups contribute their leaf pairs. Later duplicates of a property
// win, matching JS object semantics.
func parseDeclarations(body string) []Declaration {
	var (
		decls []Declaration
		index = make(map[string]int)
	)

	for _, pair := range scanPairs(body) {
		prop := camelToKebab(pair.Property)
		if i, ok := index[prop]; ok {
			decls[i].Value = pair.Value
			continue
		}
		index[prop] = len(decls)
		decls = append(decls, Declaration{Property: prop, Value: pair.Value})
	}
	return decls
}

// scanPairs walks the body character-wise, collecting key: "value" and
// key: number pairs. String contents never produce keys.
func scanPairs(body string) []Declaration {
	var decls []Declaration

	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			end := scanString(body, i)
			if end < 0 {
				return decls
			}
			i = end + 1
		case isIdentStart(c):
			start := i
			for i < len(body) && isIdentPart(body[i]) {
				i++
			}
			key := body[start:i]
			j := skipSpaces(body, i)
			if j >= len(body) || body[j] != ':' {
				continue
			}
			j = skipSpaces(body, j+1)
			if j >= len(body) {
				return decls
			}
			switch {
			case body[j] == '"' || body[j] == '\'':
				end := scanString(body, j)
				if end < 0 {
					return decls
				}
				decls = append(decls, Declaration{Property: key, Value: body[j+1 : end]})
				i = end + 1
			case isNumberStart(body[j]):
				start := j
				for j < len(body) && isNumberPart(body[j]) {
					j++
				}
				decls = append(decls, Declaration{Property: key, Value: body[start:j]})
				i = j
			default:
				i = j
			}
		default:
			i++
		}
	}
	return decls
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isNumberStart(c byte) bool {
	return c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isNumberPart(c byte) bool {
	return isNumberStart(c) || c == '%' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// camelToKebab converts a JS-style property name to its CSS form.
func camelToKebab(prop string) string {
	var b strings.Builder
	b.Grow(len(prop) + 4)
	for i := 0; i < len(prop); i++ {
		c := prop[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('-')
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// minifyCSS strips comments and collapses whitespace using a token-level pass
// over the stylesheet. A space survives only between two word-like tokens,
// preserving combinators and multi-part values.
func minifyCSS(input string) string {
	lexer := css.NewLexer(parse.NewInputString(input))

	var (
		b            strings.Builder
		pendingSpace bool
		prevWordy    bool
	)
	b.Grow(len(input))

	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		switch tt {
		case css.WhitespaceToken:
			pendingSpace = true
		case css.CommentToken:
			// dropped
		default:
			wordy := isWordyToken(tt)
			if pendingSpace && prevWordy && wordy {
				b.WriteByte(' ')
			}
			pendingSpace = false
			prevWordy = wordy
			b.Write(text)
		}
	}
	return b.String()
}

func isWordyToken(tt css.TokenType) bool {
	switch tt {
	case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken,
		css.HashToken, css.StringToken, css.URLToken, css.FunctionToken,
		css.UnicodeRangeToken, css.DelimToken, css.AtKeywordToken:
		return true
	}
	return false
}
