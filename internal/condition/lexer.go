package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokTrue
	tokFalse
	tokNull
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of expression",
	tokNumber:  "number",
	tokString:  "string",
	tokIdent:   "identifier",
	tokTrue:    "true",
	tokFalse:   "false",
	tokNull:    "null",
	tokAnd:     "and",
	tokOr:      "or",
	tokNot:     "not",
	tokLParen:  "(",
	tokRParen:  ")",
	tokPlus:    "+",
	tokMinus:   "-",
	tokStar:    "*",
	tokSlash:   "/",
	tokPercent: "%",
	tokEq:      "==",
	tokNe:      "!=",
	tokLt:      "<",
	tokLe:      "<=",
	tokGt:      ">",
	tokGe:      ">=",
}

func (k tokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"true":  tokTrue,
	"false": tokFalse,
	"null":  tokNull,
	"none":  tokNull,
}

// tokenize splits a condition into tokens. Keywords are case-insensitive so
// both "status = 'a' AND x > 1" and Python-style "True"/"None" are accepted.
// Field names that are not identifiers are written in backticks.
func tokenize(src string) ([]token, error) {
	var tokens []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '+':
			tokens = append(tokens, token{kind: tokPlus, text: "+", pos: i})
			i++
		case r == '-':
			tokens = append(tokens, token{kind: tokMinus, text: "-", pos: i})
			i++
		case r == '*':
			tokens = append(tokens, token{kind: tokStar, text: "*", pos: i})
			i++
		case r == '/':
			tokens = append(tokens, token{kind: tokSlash, text: "/", pos: i})
			i++
		case r == '%':
			tokens = append(tokens, token{kind: tokPercent, text: "%", pos: i})
			i++
		case r == '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokEq, text: "==", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokEq, text: "=", pos: i})
				i++
			}
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokNe, text: "!=", pos: i})
				i += 2
			} else {
				return nil, &SyntaxError{Pos: i, Msg: "unexpected '!'"}
			}
		case r == '<':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokLe, text: "<=", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokLt, text: "<", pos: i})
				i++
			}
		case r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokGe, text: ">=", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokGt, text: ">", pos: i})
				i++
			}
		case r == '\'' || r == '"':
			text, next, err := scanString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: text, pos: i})
			i = next
		case r == '`':
			name, next, err := scanQuotedName(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokIdent, text: name, pos: i})
			i = next
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			tok, next, err := scanNumber(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			word := string(runes[start:i])
			if kind, ok := keywords[strings.ToLower(word)]; ok {
				tokens = append(tokens, token{kind: kind, text: word, pos: start})
			} else {
				tokens = append(tokens, token{kind: tokIdent, text: word, pos: start})
			}
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

func scanString(runes []rune, start int) (string, int, error) {
	quote := runes[start]
	var b strings.Builder
	i := start + 1
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == quote:
			return b.String(), i + 1, nil
		case r == '\\':
			if i+1 >= len(runes) {
				return "", 0, &SyntaxError{Pos: i, Msg: "unterminated escape"}
			}
			switch esc := runes[i+1]; esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(esc)
			}
			i += 2
		default:
			b.WriteRune(r)
			i++
		}
	}
	return "", 0, &SyntaxError{Pos: start, Msg: "unterminated string literal"}
}

// scanQuotedName reads a `field name` that is not a plain identifier, such
// as `unit-price`. The name is taken verbatim; backticks cannot be escaped.
func scanQuotedName(runes []rune, start int) (string, int, error) {
	for i := start + 1; i < len(runes); i++ {
		if runes[i] == '`' {
			if i == start+1 {
				return "", 0, &SyntaxError{Pos: start, Msg: "empty field name"}
			}
			return string(runes[start+1 : i]), i + 1, nil
		}
	}
	return "", 0, &SyntaxError{Pos: start, Msg: "unterminated field name"}
}

func scanNumber(runes []rune, start int) (token, int, error) {
	i := start
	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
	}
	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && unicode.IsDigit(runes[j]) {
			i = j
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		}
	}
	text := string(runes[start:i])
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
	}
	if i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i])) {
		return token{}, 0, &SyntaxError{Pos: i, Msg: fmt.Sprintf("invalid number %q", string(runes[start:i+1]))}
	}
	return token{kind: tokNumber, text: text, num: value, pos: start}, i, nil
}
