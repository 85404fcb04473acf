package shortener

import "github.com/jaevor/go-nanoid"

// CodeAlphabet is the 62-symbol alphabet short codes are drawn from.
const CodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the number of characters in a generated code.
const CodeLength = 7

// CodeGenerator produces a candidate short code.
type CodeGenerator func() string

// NewCodeGenerator returns a generator sampling CodeLength symbols uniformly from CodeAlphabet.
func NewCodeGenerator() (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(CodeAlphabet, CodeLength)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}
