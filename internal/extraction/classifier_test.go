package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBillDocument(t *testing.T) {
	text := "FATURA DE ENERGIA ELÉTRICA\nSegunda via da fatura disponível no site"
	assert.Equal(t, "fatura", Classify(text))
}

func TestClassifyMatchesMultiWordKeyword(t *testing.T) {
	text := "Beneficiário da TARIFA SOCIAL DE ENERGIA elétrica"
	assert.Equal(t, "fatura", Classify(text))
}

func TestClassifyUnknownDocument(t *testing.T) {
	assert.Equal(t, UnknownCategory, Classify("boleto de condomínio sem relação"))
	assert.Equal(t, UnknownCategory, Classify(""))
}
