package minipro

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// argLexer splits a command line into POSIX-shell style words. Adjacent
// tokens without whitespace between them join into one word.
var argLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "DoubleQuoted", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "SingleQuoted", Pattern: `'[^']*'`},
	{Name: "Word", Pattern: `(?:\\.|[^\s"'\\])+`},
})

var (
	tokWhitespace   = argLexer.Symbols()["Whitespace"]
	tokDoubleQuoted = argLexer.Symbols()["DoubleQuoted"]
	tokSingleQuoted = argLexer.Symbols()["SingleQuoted"]
)

// SplitArgs tokenises line like a shell would, without expansion.
func SplitArgs(line string) ([]string, error) {
	lex, err := argLexer.LexString("", line)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	var (
		args    []string
		current strings.Builder
		inWord  bool
	)
	flush := func() {
		if inWord {
			args = append(args, current.String())
			current.Reset()
			inWord = false
		}
	}
	for _, tok := range tokens {
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case tokWhitespace:
			flush()
			continue
		case tokSingleQuoted:
			current.WriteString(tok.Value[1 : len(tok.Value)-1])
		case tokDoubleQuoted:
			current.WriteString(unescape(tok.Value[1:len(tok.Value)-1], `"\$`+"`"))
		default:
			current.WriteString(unescape(tok.Value, ""))
		}
		inWord = true
	}
	flush()
	return args, nil
}

// unescape removes backslashes. When only is non-empty, a backslash is
// removed only before one of those characters.
func unescape(s, only string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (only == "" || strings.IndexByte(only, s[i+1]) >= 0) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
