package scanner

import (
	"errors"
	"go/token"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	mscanner "modernc.org/scanner"
)

// Scanner reads tokens from source text on demand.
type Scanner struct {
	src     string
	pos     int
	newline bool

	// lines is only used for its line table. It is one byte larger than
	// src so a line starting at the end of input is kept.
	lines *mscanner.Scanner
}

// State is a saved scanner position, used for lookahead.
type State struct {
	pos     int
	newline bool
}

// New creates a Scanner for src.
func New(src string) *Scanner {
	return &Scanner{
		src:   src,
		lines: mscanner.NewScanner("", make([]byte, len(src)+1), nil, nil),
	}
}

// Src returns the source being scanned.
func (s *Scanner) Src() string { return s.src }

// Save captures the current position.
func (s *Scanner) Save() State {
	return State{pos: s.pos, newline: s.newline}
}

// Restore rewinds to a position captured by Save. Line starts already
// recorded stay valid.
func (s *Scanner) Restore(st State) {
	s.pos, s.newline = st.pos, st.newline
}

func (s *Scanner) errorf(offset int, msg string) *Error {
	return &Error{ErrWithPosition: mscanner.ErrWithPosition{Pos: s.position(offset), Err: errors.New(msg)}}
}

// position maps a scanned offset to its line and column. Columns count
// runes, not bytes.
func (s *Scanner) position(offset int) token.Position {
	p := s.lines.Position(offset)
	lineStart := min(max(offset-(p.Column-1), 0), offset)
	p.Offset = offset
	p.Column = utf8.RuneCountInString(s.src[lineStart:offset]) + 1
	return p
}

func (s *Scanner) peekRune(off int) (rune, int) {
	if s.pos+off >= len(s.src) {
		return -1, 0
	}
	return utf8.DecodeRuneInString(s.src[s.pos+off:])
}

// newLine records a line starting at next. The line table takes the
// offset of the terminator's last byte.
func (s *Scanner) newLine(next int) {
	s.lines.AddLine(next - 1)
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == 0x2028 || r == 0x2029
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\v', '\f', 0xA0, 0xFEFF:
		return true
	}
	return r > 0x7f && unicode.Is(unicode.Zs, r)
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r > 0x7f && (unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == 0x200C || r == 0x200D ||
		(r > 0x7f && (unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc)))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// skipTrivia skips whitespace and comments, recording line terminators.
func (s *Scanner) skipTrivia() *Error {
	for s.pos < len(s.src) {
		r, w := s.peekRune(0)
		switch {
		case r == '\r':
			s.pos += w
			if s.pos < len(s.src) && s.src[s.pos] == '\n' {
				s.pos++
			}
			s.newLine(s.pos)
			s.newline = true
		case isLineTerminator(r):
			s.pos += w
			s.newLine(s.pos)
			s.newline = true
		case isWhitespace(r):
			s.pos += w
		case r == '/' && strings.HasPrefix(s.src[s.pos:], "//"):
			for s.pos < len(s.src) {
				r, w := s.peekRune(0)
				if isLineTerminator(r) {
					break
				}
				s.pos += w
			}
		case r == '/' && strings.HasPrefix(s.src[s.pos:], "/*"):
			start := s.pos
			s.pos += 2
			closed := false
			for s.pos < len(s.src) {
				if strings.HasPrefix(s.src[s.pos:], "*/") {
					s.pos += 2
					closed = true
					break
				}
				r, w := s.peekRune(0)
				s.pos += w
				if isLineTerminator(r) {
					if r == '\r' && s.pos < len(s.src) && s.src[s.pos] == '\n' {
						s.pos++
					}
					s.newLine(s.pos)
					s.newline = true
				}
			}
			if !closed {
				return s.errorf(start, "Unterminated comment")
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *Scanner) token(kind Kind, start int) Token {
	p := s.position(start)
	tok := Token{
		Kind:          kind,
		Raw:           s.src[start:s.pos],
		Start:         start,
		End:           s.pos,
		Line:          p.Line,
		Column:        p.Column,
		NewlineBefore: s.newline,
	}
	s.newline = false
	return tok
}

// Next scans the next token. At the end of input it keeps returning EOF.
func (s *Scanner) Next() (Token, error) {
	if err := s.skipTrivia(); err != nil {
		return Token{}, err
	}
	start := s.pos
	if s.pos >= len(s.src) {
		return s.token(EOF, start), nil
	}

	r, _ := s.peekRune(0)
	c := s.src[s.pos]
	switch {
	case isIdentStart(r) || c == '\\':
		return s.scanIdentifier()
	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		return s.scanNumber()
	case c == '"' || c == '\'':
		return s.scanString(c)
	case c == '`':
		s.pos++
		return s.scanTemplate(start, true)
	}

	rest := s.src[s.pos:]
	for _, p := range punctuators {
		if !strings.HasPrefix(rest, p) {
			continue
		}
		// `a?.5:b` is a conditional, not an optional chain.
		if p == "?." && len(rest) > 2 && isDigit(rest[2]) {
			continue
		}
		s.pos += len(p)
		tok := s.token(Punctuator, start)
		tok.Value = p
		return tok, nil
	}
	return Token{}, s.errorf(start, "Invalid or unexpected token")
}

func (s *Scanner) scanIdentifier() (Token, error) {
	start := s.pos
	var sb strings.Builder
	escaped := false
	first := true
	for s.pos < len(s.src) {
		r, w := s.peekRune(0)
		if r == '\\' {
			if s.pos+1 >= len(s.src) || s.src[s.pos+1] != 'u' {
				return Token{}, s.errorf(s.pos, "Invalid or unexpected token")
			}
			s.pos += 2
			cp, ok := s.readUnicodeEscape()
			if !ok || (first && !isIdentStart(cp)) || (!first && !isIdentPart(cp)) {
				return Token{}, s.errorf(start, "Invalid Unicode escape sequence")
			}
			sb.WriteRune(cp)
			escaped = true
			first = false
			continue
		}
		if (first && !isIdentStart(r)) || (!first && !isIdentPart(r)) {
			break
		}
		sb.WriteRune(r)
		s.pos += w
		first = false
	}
	name := sb.String()
	kind := Identifier
	if !escaped && keywords[name] {
		kind = Keyword
	}
	tok := s.token(kind, start)
	tok.Value = name
	tok.Escaped = escaped
	return tok, nil
}

// readUnicodeEscape reads the part of a \u escape after the `u`.
func (s *Scanner) readUnicodeEscape() (rune, bool) {
	if s.pos < len(s.src) && s.src[s.pos] == '{' {
		end := strings.IndexByte(s.src[s.pos:], '}')
		if end < 2 {
			return 0, false
		}
		digits := s.src[s.pos+1 : s.pos+end]
		for i := 0; i < len(digits); i++ {
			if !isHex(digits[i]) {
				return 0, false
			}
		}
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || v > unicode.MaxRune {
			return 0, false
		}
		s.pos += end + 1
		return rune(v), true
	}
	if s.pos+4 > len(s.src) {
		return 0, false
	}
	digits := s.src[s.pos : s.pos+4]
	for i := 0; i < 4; i++ {
		if !isHex(digits[i]) {
			return 0, false
		}
	}
	v, _ := strconv.ParseUint(digits, 16, 32)
	s.pos += 4
	return rune(v), true
}

func (s *Scanner) scanDigits(valid func(byte) bool) string {
	start := s.pos
	for s.pos < len(s.src) && (valid(s.src[s.pos]) || (s.src[s.pos] == '_' && s.pos > start)) {
		s.pos++
	}
	return strings.ReplaceAll(s.src[start:s.pos], "_", "")
}

func (s *Scanner) scanNumber() (Token, error) {
	start := s.pos
	var value float64
	var digits string
	integer := true

	if s.src[s.pos] == '0' && s.pos+1 < len(s.src) {
		base := 0
		switch s.src[s.pos+1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			s.pos += 2
			digits = s.scanDigits(func(c byte) bool {
				switch base {
				case 16:
					return isHex(c)
				case 8:
					return c >= '0' && c <= '7'
				}
				return c == '0' || c == '1'
			})
			if digits == "" {
				return Token{}, s.errorf(start, "Invalid or unexpected token")
			}
			n, ok := new(big.Int).SetString(digits, base)
			if !ok {
				return Token{}, s.errorf(start, "Invalid or unexpected token")
			}
			value, _ = new(big.Float).SetInt(n).Float64()
			digits = n.String()
			return s.finishNumber(start, value, digits, true)
		}
		if isDigit(s.src[s.pos+1]) {
			// Legacy octal such as 017, unless a non-octal digit shows up.
			end := s.pos + 1
			octal := true
			for end < len(s.src) && isDigit(s.src[end]) {
				if s.src[end] > '7' {
					octal = false
				}
				end++
			}
			if octal {
				digits = s.src[s.pos+1 : end]
				s.pos = end
				n, _ := strconv.ParseUint(digits, 8, 64)
				return s.finishLegacy(start, float64(n))
			}
		}
	}

	intPart := s.scanDigits(isDigit)
	digits = intPart
	if s.pos < len(s.src) && s.src[s.pos] == '.' {
		integer = false
		s.pos++
		digits += "." + s.scanDigits(isDigit)
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		integer = false
		s.pos++
		digits += "e"
		if s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
			digits += string(s.src[s.pos])
			s.pos++
		}
		exp := s.scanDigits(isDigit)
		if exp == "" {
			return Token{}, s.errorf(start, "Invalid or unexpected token")
		}
		digits += exp
	}
	if strings.HasPrefix(digits, ".") {
		digits = "0" + digits
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(digits, "."), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return Token{}, s.errorf(start, "Invalid or unexpected token")
		}
	}
	return s.finishNumber(start, value, digits, integer)
}

func (s *Scanner) finishNumber(start int, value float64, digits string, integer bool) (Token, error) {
	kind := Numeric
	if integer && s.pos < len(s.src) && s.src[s.pos] == 'n' {
		s.pos++
		kind = BigInt
	}
	if r, _ := s.peekRune(0); r >= 0 && (isIdentStart(r) || (r >= '0' && r <= '9')) {
		return Token{}, s.errorf(start, "Invalid or unexpected token")
	}
	tok := s.token(kind, start)
	tok.Value = digits
	tok.Number = value
	return tok, nil
}

func (s *Scanner) finishLegacy(start int, value float64) (Token, error) {
	if r, _ := s.peekRune(0); r >= 0 && isIdentPart(r) {
		return Token{}, s.errorf(start, "Invalid or unexpected token")
	}
	tok := s.token(Numeric, start)
	tok.Value = strconv.FormatFloat(value, 'f', -1, 64)
	tok.Number = value
	return tok, nil
}

func (s *Scanner) scanString(quote byte) (Token, error) {
	start := s.pos
	s.pos++
	var units runeBuffer
	for {
		if s.pos >= len(s.src) {
			return Token{}, s.errorf(start, "Invalid or unexpected token")
		}
		r, w := s.peekRune(0)
		if r == rune(quote) {
			s.pos++
			break
		}
		if r == '\n' || r == '\r' {
			return Token{}, s.errorf(start, "Invalid or unexpected token")
		}
		if r == '\\' {
			s.pos++
			ok, err := s.readEscape(&units, false)
			if err != nil {
				return Token{}, err
			}
			if !ok {
				return Token{}, s.errorf(start, "Invalid escape sequence")
			}
			continue
		}
		units.add(r)
		s.pos += w
	}
	tok := s.token(String, start)
	tok.Value = units.String()
	return tok, nil
}

// readEscape decodes the escape after a backslash into buf. It returns
// false for escapes that are malformed in the current context; template
// chunks keep scanning and lose their cooked value instead.
func (s *Scanner) readEscape(buf *runeBuffer, template bool) (bool, *Error) {
	if s.pos >= len(s.src) {
		return false, s.errorf(s.pos, "Invalid or unexpected token")
	}
	r, w := s.peekRune(0)
	switch r {
	case 'n':
		buf.add('\n')
	case 't':
		buf.add('\t')
	case 'r':
		buf.add('\r')
	case 'b':
		buf.add('\b')
	case 'f':
		buf.add('\f')
	case 'v':
		buf.add('\v')
	case '\r':
		s.pos++
		if s.pos < len(s.src) && s.src[s.pos] == '\n' {
			s.pos++
		}
		s.newLine(s.pos)
		return true, nil
	case '\n', 0x2028, 0x2029:
		s.pos += w
		s.newLine(s.pos)
		return true, nil
	case 'x':
		if s.pos+2 < len(s.src) && isHex(s.src[s.pos+1]) && isHex(s.src[s.pos+2]) {
			v, _ := strconv.ParseUint(s.src[s.pos+1:s.pos+3], 16, 8)
			buf.add(rune(v))
			s.pos += 3
			return true, nil
		}
		s.pos++
		return false, nil
	case 'u':
		s.pos++
		cp, ok := s.readUnicodeEscape()
		if !ok {
			return false, nil
		}
		buf.add(cp)
		return true, nil
	default:
		if r >= '0' && r <= '7' {
			if r == '0' && (s.pos+1 >= len(s.src) || !isDigit(s.src[s.pos+1])) {
				buf.add(0)
				s.pos++
				return true, nil
			}
			if template {
				s.pos++
				return false, nil
			}
			end := s.pos
			for end < len(s.src) && end-s.pos < 3 && s.src[end] >= '0' && s.src[end] <= '7' {
				end++
			}
			v, _ := strconv.ParseUint(s.src[s.pos:end], 8, 16)
			if v > 0xff {
				end--
				v, _ = strconv.ParseUint(s.src[s.pos:end], 8, 16)
			}
			buf.add(rune(v))
			s.pos = end
			return true, nil
		}
		if r == '8' || r == '9' {
			if template {
				s.pos++
				return false, nil
			}
		}
		buf.add(r)
	}
	s.pos += w
	return true, nil
}

// ScanTemplate reads a template continuation. It is called by the parser
// once the `}` closing a substitution has been consumed; start is the
// offset of that `}`.
func (s *Scanner) ScanTemplate(start int) (Token, error) {
	s.pos = start + 1
	return s.scanTemplate(start, false)
}

func (s *Scanner) scanTemplate(start int, head bool) (Token, error) {
	var cooked runeBuffer
	var raw strings.Builder
	valid := true
	tail := false
	for {
		if s.pos >= len(s.src) {
			return Token{}, s.errorf(start, "Unterminated template literal")
		}
		r, w := s.peekRune(0)
		if r == '`' {
			s.pos++
			tail = true
			break
		}
		if r == '$' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '{' {
			s.pos += 2
			break
		}
		if r == '\\' {
			escStart := s.pos
			s.pos++
			ok, err := s.readEscape(&cooked, true)
			if err != nil {
				return Token{}, err
			}
			if !ok {
				valid = false
				// Skip the rest of a malformed escape's visible characters
				// up to the next delimiter-safe position.
				for s.pos < len(s.src) && isHex(s.src[s.pos]) {
					s.pos++
				}
			}
			raw.WriteString(normalizeNewlines(s.src[escStart:s.pos]))
			continue
		}
		if r == '\r' {
			s.pos++
			if s.pos < len(s.src) && s.src[s.pos] == '\n' {
				s.pos++
			}
			s.newLine(s.pos)
			cooked.add('\n')
			raw.WriteByte('\n')
			continue
		}
		if isLineTerminator(r) {
			s.pos += w
			s.newLine(s.pos)
		} else {
			s.pos += w
		}
		cooked.add(r)
		raw.WriteRune(r)
	}
	tok := s.token(Template, start)
	tok.Value = raw.String()
	tok.Head = head
	tok.Tail = tail
	if valid {
		c := cooked.String()
		tok.Cooked = &c
	}
	return tok, nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// ScanRegex rescans a `/` or `/=` punctuator as a regular expression
// literal.
func (s *Scanner) ScanRegex(tok Token) (Token, error) {
	start := tok.Start
	s.pos = start + 1
	inClass := false
	for {
		if s.pos >= len(s.src) {
			return Token{}, s.errorf(start, "Invalid regular expression: missing /")
		}
		r, w := s.peekRune(0)
		if isLineTerminator(r) {
			return Token{}, s.errorf(start, "Invalid regular expression: missing /")
		}
		s.pos += w
		if r == '\\' {
			if s.pos >= len(s.src) {
				return Token{}, s.errorf(start, "Invalid regular expression: missing /")
			}
			r, w := s.peekRune(0)
			if isLineTerminator(r) {
				return Token{}, s.errorf(start, "Invalid regular expression: missing /")
			}
			s.pos += w
			continue
		}
		if r == '[' {
			inClass = true
		} else if r == ']' {
			inClass = false
		} else if r == '/' && !inClass {
			break
		}
	}
	pattern := s.src[start+1 : s.pos-1]
	flagStart := s.pos
	for s.pos < len(s.src) {
		r, w := s.peekRune(0)
		if !isIdentPart(r) {
			break
		}
		s.pos += w
	}
	flags := s.src[flagStart:s.pos]
	for i, f := range flags {
		if !strings.ContainsRune("dgimsuyv", f) || strings.ContainsRune(flags[i+1:], f) {
			return Token{}, s.errorf(start, "Invalid regular expression flags")
		}
	}
	// The rescanned token keeps the newline flag of the punctuator.
	s.newline = tok.NewlineBefore
	out := s.token(RegularExpression, start)
	out.Value = s.src[start:s.pos]
	out.Pattern = pattern
	out.Flags = flags
	return out, nil
}

// runeBuffer collects decoded characters. \u escapes may produce UTF-16
// surrogate halves; String pairs them up and replaces lone halves.
type runeBuffer struct {
	runes []rune
}

func (b *runeBuffer) add(r rune) { b.runes = append(b.runes, r) }

func (b *runeBuffer) String() string {
	var sb strings.Builder
	for i := 0; i < len(b.runes); i++ {
		r := b.runes[i]
		if utf16.IsSurrogate(r) && i+1 < len(b.runes) {
			if pair := utf16.DecodeRune(r, b.runes[i+1]); pair != unicode.ReplacementChar {
				sb.WriteRune(pair)
				i++
				continue
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Tokenize scans all of src without a parser. Regular expressions are
// told apart from division by the previous token, and template
// substitutions are tracked with a brace stack. The result ends with an
// EOF token.
func Tokenize(src string) ([]Token, error) {
	s := New(src)
	var toks []Token
	// Each entry is true for a template substitution, false for a plain brace.
	var braces []bool
	for {
		tok, err := s.Next()
		if err != nil {
			return toks, err
		}
		if tok.Kind == Punctuator {
			switch tok.Value {
			case "{":
				braces = append(braces, false)
			case "}":
				if n := len(braces); n > 0 {
					sub := braces[n-1]
					braces = braces[:n-1]
					if sub {
						tok, err = s.ScanTemplate(tok.Start)
						if err != nil {
							return toks, err
						}
					}
				}
			case "/", "/=":
				if regexAllowed(toks) {
					tok, err = s.ScanRegex(tok)
					if err != nil {
						return toks, err
					}
				}
			}
		}
		if tok.Kind == Template && !tok.Tail {
			braces = append(braces, true)
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func regexAllowed(prev []Token) bool {
	return !endsOperand(prev)
}

// endsOperand reports whether the last token of prev completes an operand,
// making a following `/` a division.
func endsOperand(prev []Token) bool {
	if len(prev) == 0 {
		return false
	}
	p := prev[len(prev)-1]
	switch p.Kind {
	case Identifier, Numeric, BigInt, String, RegularExpression:
		return true
	case Template:
		return p.Tail
	case Keyword:
		// `a.return` and `a?.default` are property names.
		if len(prev) > 1 && (prev[len(prev)-2].Is(".") || prev[len(prev)-2].Is("?.")) {
			return true
		}
		switch p.Value {
		case "this", "super", "null", "true", "false":
			return true
		}
		return false
	case Punctuator:
		switch p.Value {
		case ")", "]", "}":
			return true
		case "++", "--":
			// Postfix when it follows an operand.
			return endsOperand(prev[:len(prev)-1])
		}
	}
	return false
}
