package field

import (
	"errors"
	"strconv"
	"strings"
)

const (
	kindInt   = "int"
	kindFloat = "float"
	kindBool  = "bool"
)

// NewInt builds a field that finalizes to an int64.
func NewInt(name string) *Char {
	c := NewChar(name, 0, 0)
	c.kind = kindInt
	c.parse = parseInt
	return c
}

// NewFloat builds a field that finalizes to a float64.
func NewFloat(name string) *Char {
	c := NewChar(name, 0, 0)
	c.kind = kindFloat
	c.parse = parseFloat
	return c
}

// NewBool builds a field that accepts yes/no style answers.
func NewBool(name string) *Char {
	c := NewChar(name, 0, 0)
	c.kind = kindBool
	c.parse = parseBool
	return c
}

func parseInt(raw string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, errors.New("This value can't be converted to an integer")
	}
	return n, nil
}

func parseFloat(raw string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, errors.New("This value can't be converted to a float")
	}
	return f, nil
}

func parseBool(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return nil, errors.New("Unknown answer received")
}
