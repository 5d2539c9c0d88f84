package hlt

import (
	"strconv"
	"strings"
)

// Tokens is a front-consumed view over a turn snapshot.
type Tokens struct {
	toks []string
	pos  int
}

func NewTokens(toks []string) *Tokens {
	return &Tokens{toks: toks}
}

// Tokenize splits a snapshot line on whitespace.
func Tokenize(line string) *Tokens {
	return NewTokens(strings.Fields(line))
}

// Remaining is the number of unread tokens.
func (t *Tokens) Remaining() int {
	return len(t.toks) - t.pos
}

func (t *Tokens) next(field string) (string, error) {
	if t.pos >= len(t.toks) {
		return "", &MalformedSnapshotError{Field: field, Err: ErrTokensExhausted}
	}
	tok := t.toks[t.pos]
	t.pos++
	return tok, nil
}

func (t *Tokens) parseInt(field string, bitSize int) (int64, error) {
	tok, err := t.next(field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(tok, 10, bitSize)
	if err != nil {
		return 0, &MalformedSnapshotError{Field: field, Token: tok, Err: err}
	}
	return v, nil
}

// Int16 reads a narrow integer such as a player count or tag.
func (t *Tokens) Int16(field string) (int16, error) {
	v, err := t.parseInt(field, 16)
	return int16(v), err
}

func (t *Tokens) Int(field string) (int, error) {
	v, err := t.parseInt(field, 0)
	return int(v), err
}

// Int64 reads a wide integer: entity ids and the planet count.
func (t *Tokens) Int64(field string) (int64, error) {
	return t.parseInt(field, 64)
}

func (t *Tokens) Float(field string) (float64, error) {
	tok, err := t.next(field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, &MalformedSnapshotError{Field: field, Token: tok, Err: err}
	}
	return v, nil
}
