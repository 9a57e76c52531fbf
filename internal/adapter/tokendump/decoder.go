// Package tokendump reads the JSON token streams produced by PHP's
// token_get_all: an array whose elements are either [kind, text, line]
// triples or bare single-character strings.
package tokendump

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"phptdd/internal/domain"
)

var ErrMalformedToken = errors.New("malformed token")

// Decode reads a whole token dump from r.
func Decode(r io.Reader) ([]domain.Token, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	open, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read token dump: %w", err)
	}
	if d, ok := open.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("failed to read token dump: expected array, got %v", open)
	}

	var tokens []domain.Token
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to read token %d: %w", i, err)
		}
		tok, err := decodeElement(raw)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		tokens = append(tokens, tok)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read token dump: %w", err)
	}
	return tokens, nil
}

// DecodeFile decodes the token dump stored at path.
func DecodeFile(path string) ([]domain.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// DecodeBytes decodes an in-memory token dump.
func DecodeBytes(data []byte) ([]domain.Token, error) {
	return Decode(bytes.NewReader(data))
}

func decodeElement(raw json.RawMessage) (domain.Token, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.Token{}, ErrMalformedToken
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return domain.Symbol(s), nil
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return domain.Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		if len(parts) != 3 {
			return domain.Token{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedToken, len(parts))
		}
		kind, err := decodeInt(parts[0])
		if err != nil {
			return domain.Token{}, fmt.Errorf("%w: kind: %v", ErrMalformedToken, err)
		}
		text, err := decodeText(parts[1])
		if err != nil {
			return domain.Token{}, fmt.Errorf("%w: text: %v", ErrMalformedToken, err)
		}
		line, err := decodeInt(parts[2])
		if err != nil {
			return domain.Token{}, fmt.Errorf("%w: line: %v", ErrMalformedToken, err)
		}
		return domain.Content(kind, text, line), nil
	default:
		return domain.Token{}, fmt.Errorf("%w: unexpected %s", ErrMalformedToken, raw)
	}
}

func decodeInt(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, err
	}
	return v, nil
}

// decodeText accepts numeric text as well, for hand-written dumps.
func decodeText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
