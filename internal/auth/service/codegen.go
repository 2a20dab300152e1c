package service

import (
	"io"

	"github.com/logiscore/authcore/pkg/cryptox"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// CodeGenerator produces verification codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator draws uniform CodeLength-digit codes from Rand,
// crypto/rand when nil.
type RandomCodeGenerator struct {
	Rand io.Reader
}

func (g RandomCodeGenerator) Generate() (string, error) {
	if g.Rand == nil {
		return cryptox.GenerateNumericCode(CodeLength)
	}
	return cryptox.GenerateNumericCodeFrom(g.Rand, CodeLength)
}
