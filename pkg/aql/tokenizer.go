package aql

import "strings"

// tokenizer is a single-invocation cursor over the query text.
// It is never shared between calls.
type tokenizer struct {
	input  string
	pos    int
	line   int
	column int
}

// Tokenize converts query text into a flat token stream. The stream always
// ends with a TokenEOF token. Tokenize never fails: lexical errors
// (unterminated strings, malformed operators, stray characters) are emitted
// as TokenInvalid tokens carrying the offending text, and rejected later by
// the parser with their position.
func Tokenize(input string) []Token {
	t := &tokenizer{input: input, line: 1, column: 1}

	var tokens []Token
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			break
		}
		tokens = append(tokens, t.next())
	}
	tokens = append(tokens, Token{Kind: TokenEOF, Line: t.line, Column: t.column})
	return tokens
}

func (t *tokenizer) peek(offset int) byte {
	p := t.pos + offset
	if p >= len(t.input) {
		return 0
	}
	return t.input[p]
}

func (t *tokenizer) advance() byte {
	if t.pos >= len(t.input) {
		return 0
	}
	ch := t.input[t.pos]
	t.pos++
	if ch == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
	return ch
}

func (t *tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && isSpace(t.peek(0)) {
		t.advance()
	}
}

func (t *tokenizer) next() Token {
	line, col := t.line, t.column
	ch := t.peek(0)

	switch {
	case ch == '"' || ch == '\'':
		return t.readString(line, col)
	case isDigit(ch):
		return t.readNumber(line, col)
	case isAlpha(ch) || ch == '_':
		return t.readIdentifierOrKeyword(line, col)
	default:
		return t.readOperatorOrPunctuation(line, col)
	}
}

// readString reads a single- or double-quoted string literal with backslash
// escapes. An unterminated literal becomes a TokenInvalid token spanning
// from the opening quote.
func (t *tokenizer) readString(line, col int) Token {
	quote := t.advance()
	var sb strings.Builder

	for {
		ch := t.peek(0)
		if ch == 0 {
			// Unterminated string: surface the raw remainder as invalid.
			return Token{Kind: TokenInvalid, Text: string(quote) + sb.String(), Line: line, Column: col}
		}
		if ch == quote {
			t.advance()
			return Token{Kind: TokenString, Text: sb.String(), Line: line, Column: col}
		}
		if ch == '\\' {
			t.advance()
			esc := t.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			case '\\':
				sb.WriteByte('\\')
			default:
				// Unknown escape: pass the character through unchanged.
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(t.advance())
	}
}

// readNumber reads an integer or float literal. The token is FLOAT only if
// the '.' is immediately followed by a digit, so a traversal depth range
// like "1..3" tokenizes as INTEGER DOT DOT INTEGER.
func (t *tokenizer) readNumber(line, col int) Token {
	var sb strings.Builder
	for isDigit(t.peek(0)) {
		sb.WriteByte(t.advance())
	}
	if t.peek(0) == '.' && isDigit(t.peek(1)) {
		sb.WriteByte(t.advance())
		for isDigit(t.peek(0)) {
			sb.WriteByte(t.advance())
		}
		return Token{Kind: TokenFloat, Text: sb.String(), Line: line, Column: col}
	}
	return Token{Kind: TokenInteger, Text: sb.String(), Line: line, Column: col}
}

func (t *tokenizer) readIdentifierOrKeyword(line, col int) Token {
	var sb strings.Builder
	for isAlnum(t.peek(0)) || t.peek(0) == '_' {
		sb.WriteByte(t.advance())
	}
	text := sb.String()
	if kind, ok := keywords[strings.ToLower(text)]; ok {
		return Token{Kind: kind, Text: text, Line: line, Column: col}
	}
	return Token{Kind: TokenIdent, Text: text, Line: line, Column: col}
}

func (t *tokenizer) readOperatorOrPunctuation(line, col int) Token {
	ch := t.peek(0)

	// Two-character operators first.
	if ch == '=' && t.peek(1) == '=' {
		t.advance()
		t.advance()
		// A run of '=' longer than two is a malformed operator, not '=='.
		if t.peek(0) == '=' {
			run := "==="
			t.advance()
			for t.peek(0) == '=' {
				run += "="
				t.advance()
			}
			return Token{Kind: TokenInvalid, Text: run, Line: line, Column: col}
		}
		return Token{Kind: TokenEq, Text: "==", Line: line, Column: col}
	}
	if ch == '!' && t.peek(1) == '=' {
		t.advance()
		t.advance()
		return Token{Kind: TokenNeq, Text: "!=", Line: line, Column: col}
	}
	if ch == '<' && t.peek(1) == '=' {
		t.advance()
		t.advance()
		return Token{Kind: TokenLte, Text: "<=", Line: line, Column: col}
	}
	if ch == '>' && t.peek(1) == '=' {
		t.advance()
		t.advance()
		return Token{Kind: TokenGte, Text: ">=", Line: line, Column: col}
	}

	t.advance()
	single := map[byte]TokenKind{
		'=': TokenAssign,
		'<': TokenLt,
		'>': TokenGt,
		'+': TokenPlus,
		'-': TokenMinus,
		'*': TokenStar,
		'/': TokenSlash,
		'%': TokenPercent,
		'.': TokenDot,
		',': TokenComma,
		'(': TokenLParen,
		')': TokenRParen,
		'{': TokenLBrace,
		'}': TokenRBrace,
		'[': TokenLBracket,
		']': TokenRBracket,
		':': TokenColon,
	}
	if kind, ok := single[ch]; ok {
		return Token{Kind: kind, Text: string(ch), Line: line, Column: col}
	}
	return Token{Kind: TokenInvalid, Text: string(ch), Line: line, Column: col}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlnum(ch byte) bool { return isAlpha(ch) || isDigit(ch) }
