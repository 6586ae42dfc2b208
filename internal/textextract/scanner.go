package textextract

import (
	"bytes"
	"strconv"
)

type kind int

const (
	kindNumber kind = iota
	kindString
	kindName
	kindArray
	kindDict
	kindOperator
	kindOther
)

type token struct {
	kind kind
	num  float64
	str  []byte
	arr  []token
	op   string
}

// scanner splits a content stream into operands and operators. It is lenient:
// anything it does not understand is skipped rather than reported.
type scanner struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isWhite(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

// next returns the next token, or false at the end of the data.
func (s *scanner) next() (token, bool) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return token{}, false
	}
	c := s.data[s.pos]
	switch {
	case c == '(':
		s.pos++
		return token{kind: kindString, str: s.literal()}, true
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		s.skipDict()
		return token{kind: kindDict}, true
	case c == '<':
		s.pos++
		return token{kind: kindString, str: s.hex()}, true
	case c == '[':
		s.pos++
		var items []token
		for {
			s.skipSpace()
			if s.pos >= len(s.data) {
				break
			}
			if s.data[s.pos] == ']' {
				s.pos++
				break
			}
			t, ok := s.next()
			if !ok {
				break
			}
			items = append(items, t)
		}
		return token{kind: kindArray, arr: items}, true
	case c == '/':
		s.pos++
		return token{kind: kindName, op: string(s.regular())}, true
	case isDelim(c):
		s.pos++
		return token{kind: kindOther}, true
	}

	word := s.regular()
	if n, err := strconv.ParseFloat(string(word), 64); err == nil {
		return token{kind: kindNumber, num: n}, true
	}
	if string(word) == "ID" {
		s.skipInlineImage()
	}
	return token{kind: kindOperator, op: string(word)}, true
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.data) {
		return s.data[s.pos+off]
	}
	return 0
}

func (s *scanner) regular() []byte {
	start := s.pos
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.pos++
	}
	return s.data[start:s.pos]
}

// literal reads a parenthesized string whose opening paren was consumed.
func (s *scanner) literal() []byte {
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out
			}
		case '\\':
			if s.pos >= len(s.data) {
				return out
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if s.peek(0) == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						v = v*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// hex reads a hex string whose opening angle bracket was consumed.
func (s *scanner) hex() []byte {
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isWhite(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return out
}

func (s *scanner) skipDict() {
	depth := 1
	for s.pos < len(s.data) && depth > 0 {
		switch {
		case s.data[s.pos] == '(':
			s.pos++
			s.literal()
			continue
		case s.data[s.pos] == '<' && s.peek(1) == '<':
			depth++
			s.pos += 2
			continue
		case s.data[s.pos] == '>' && s.peek(1) == '>':
			depth--
			s.pos += 2
			continue
		}
		s.pos++
	}
}

// skipInlineImage jumps over the binary data following an ID operator.
func (s *scanner) skipInlineImage() {
	s.pos++
	for s.pos < len(s.data) {
		i := bytes.Index(s.data[s.pos:], []byte("EI"))
		if i < 0 {
			s.pos = len(s.data)
			return
		}
		end := s.pos + i
		if end > 0 && isWhite(s.data[end-1]) && (end+2 == len(s.data) || isWhite(s.data[end+2])) {
			s.pos = end
			return
		}
		s.pos = end + 2
	}
}
