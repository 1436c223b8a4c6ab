package phylo

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SyntaxError reports malformed Newick input at a byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("newick: %s at offset %d", e.Msg, e.Offset)
}

// Parse reads a single Newick tree. Internal node names, quoted labels,
// branch lengths and bracketed comments are supported.
func Parse(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read newick: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a Newick tree held in memory.
func ParseString(s string) (*Tree, error) {
	p := &parser{src: s}
	p.skip()
	if p.eof() {
		return nil, p.errorf("empty input")
	}
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.eof() || p.src[p.pos] != ';' {
		return nil, p.errorf("expected ';'")
	}
	p.pos++
	p.skip()
	if !p.eof() {
		return nil, p.errorf("trailing data after ';'")
	}
	return &Tree{root: root}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// skip advances over whitespace and [comments].
func (p *parser) skip() {
	for !p.eof() {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '[':
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 1
		default:
			return
		}
	}
}

func (p *parser) subtree() (*Node, error) {
	n := &Node{}
	p.skip()
	if !p.eof() && p.src[p.pos] == '(' {
		p.pos++
		for {
			child, err := p.subtree()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
			p.skip()
			if p.eof() {
				return nil, p.errorf("unterminated clade")
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == ')' {
				p.pos++
				break
			}
			return nil, p.errorf("unexpected %q in clade", p.src[p.pos])
		}
	}
	name, err := p.label()
	if err != nil {
		return nil, err
	}
	n.name = name
	p.skip()
	if !p.eof() && p.src[p.pos] == ':' {
		p.pos++
		p.skip()
		length, err := p.length()
		if err != nil {
			return nil, err
		}
		n.length = length
	}
	return n, nil
}

func (p *parser) label() (string, error) {
	p.skip()
	if p.eof() {
		return "", nil
	}
	if p.src[p.pos] == '\'' {
		return p.quoted()
	}
	start := p.pos
	for !p.eof() && !strings.ContainsRune("(),:;[ \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

// quoted reads a single-quoted label where '' escapes a quote.
func (p *parser) quoted() (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		p.pos++
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if !p.eof() && p.src[p.pos] == '\'' {
			b.WriteByte('\'')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", p.errorf("unterminated quoted label")
}

func (p *parser) length() (float64, error) {
	start := p.pos
	for !p.eof() && strings.ContainsRune("0123456789+-.eE", rune(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("missing branch length")
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, &SyntaxError{Offset: start, Msg: "invalid branch length " + strconv.Quote(p.src[start:p.pos])}
	}
	return v, nil
}
