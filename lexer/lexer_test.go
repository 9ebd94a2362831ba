package lexer

import (
	"testing"

	"probashi/token"
)

func TestNextTokenOperatorsAndPunctuation(t *testing.T) {
	input := `=+-!*/%<><=>===!=(){}[],:;`

	tests := []token.Type{
		token.ASSIGN, token.PLUS, token.MINUS, token.BANG, token.ASTERISK, token.SLASH, token.PERCENT,
		token.LT, token.GT, token.LTE, token.GTE, token.EQ, token.NOT_EQ,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.LBRACKET, token.RBRACKET,
		token.COMMA, token.COLON, token.SEMICOLON, token.EOF,
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenKeywordSpellings(t *testing.T) {
	tests := []struct {
		literal string
		want    token.Type
	}{
		{"let", token.LET}, {"dhori", token.LET}, {"ধরি", token.LET},
		{"fn", token.FUNCTION}, {"kaj", token.FUNCTION}, {"কাজ", token.FUNCTION},
		{"one", token.ONE}, {"ekti", token.ONE}, {"একটি", token.ONE},
		{"true", token.TRUE}, {"sotti", token.TRUE}, {"সত্যি", token.TRUE},
		{"false", token.FALSE}, {"mittha", token.FALSE}, {"মিথ্যা", token.FALSE},
		{"if", token.IF}, {"jodi", token.IF}, {"যদি", token.IF},
		{"then", token.THEN}, {"tahole", token.THEN}, {"তাহলে", token.THEN},
		{"else", token.ELSE}, {"nahole", token.ELSE}, {"নাহলে", token.ELSE},
		{"return", token.RETURN}, {"ferao", token.RETURN}, {"ferau", token.RETURN}, {"ফেরাও", token.RETURN},
		{"while", token.WHILE}, {"jotokhon", token.WHILE}, {"যতক্ষণ", token.WHILE},
		{"show", token.SHOW}, {"dekhao", token.SHOW}, {"dekhau", token.SHOW}, {"দেখাও", token.SHOW},
		{"end", token.END}, {"sesh", token.END}, {"শেষ", token.END},
		{"break", token.BREAK}, {"bhango", token.BREAK}, {"ভাঙো", token.BREAK},
		{"and", token.AND}, {"ebong", token.AND}, {"এবং", token.AND},
		{"or", token.OR}, {"ba", token.OR}, {"বা", token.OR},
		{"include", token.INCLUDE}, {"anoyon", token.INCLUDE}, {"আনয়ন", token.INCLUDE},
		{"notakeyword", token.IDENT},
	}

	for _, tt := range tests {
		l := New(tt.literal)
		tok := l.NextToken()
		if tok.Type != tt.want {
			t.Errorf("LookupIdent(%q) = %q, want %q", tt.literal, tok.Type, tt.want)
		}
	}
}

func TestNextTokenNumbers(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"5", "5"},
		{"5.5", "5.5"},
		{"০৫", "05"},
		{"১২৩", "123"},
		{"৩.৫", "3.5"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != token.NUMBER {
			t.Fatalf("input %q: expected NUMBER, got %q", tt.input, tok.Type)
		}
		if tok.Literal != tt.literal {
			t.Errorf("input %q: literal = %q, want %q", tt.input, tok.Literal, tt.literal)
		}
	}
}

func TestNextTokenString(t *testing.T) {
	l := New(`"hello world"`)
	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "hello world" {
		t.Fatalf("got %+v", tok)
	}
}

func TestNextTokenLineComment(t *testing.T) {
	l := New("1 # this is ignored\n+ 2")
	want := []token.Type{token.NUMBER, token.PLUS, token.NUMBER, token.EOF}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, w, tok.Type)
		}
	}
}

func TestNextTokenIllegal(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %q", tok.Type)
	}
}

func TestNextTokenLineAndColumnTracking(t *testing.T) {
	l := New("1\n22")
	first := l.NextToken()
	if first.Line != 1 {
		t.Errorf("expected line 1, got %d", first.Line)
	}
	second := l.NextToken()
	if second.Line != 2 {
		t.Errorf("expected line 2, got %d", second.Line)
	}
}
