package extraction

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBill = `CEMIG DISTRIBUIÇÃO S.A.
FATURA DE ENERGIA ELÉTRICA
Nº DO CLIENTE
7001234567
Nº DA INSTALAÇÃO 3001234567
Valor a pagar
12/02/2024 58,75
NOTA FISCAL Nº 987654321
Band. Verde
Energia ElétricakWh 100,0 0,50250000 50,25
Energia SCEE s/ ICMSkWh 100 0,10000000 10,00
Energia compensada GD IkWh 100 0,05000000 -5,00
Contrib Ilum Publica Municipal 3,50
Histórico de Consumo
MÊS/ANO Cons. kWh Média kWh/Dia Dias
JAN/24 506 16,32 31
DEZ/23 494 16,46 30
Reservado ao Fisco
`

func TestParseFieldsCompleteBill(t *testing.T) {
	fields, err := ParseFields(sampleBill)
	require.NoError(t, err)

	assert.Equal(t, "3001234567", fields.Installation)
	assert.Equal(t, "7001234567", fields.Client)
	assert.Equal(t, "12/02/2024", fields.DueDate)
	assert.Equal(t, "987654321", fields.NotaFiscal)
	assert.Equal(t, "Verde", fields.Band)

	assert.True(t, fields.EnergyEletric.Quantity.Equal(decimal.RequireFromString("100")),
		"quantity = %s", fields.EnergyEletric.Quantity)
	assert.True(t, fields.EnergyEletric.UnitPrice.Equal(decimal.RequireFromString("0.5025")),
		"unit price = %s", fields.EnergyEletric.UnitPrice)
	assert.True(t, fields.EnergyEletric.Value.Equal(decimal.RequireFromString("50.25")),
		"value = %s", fields.EnergyEletric.Value)

	assert.True(t, fields.EnergySCEE.Value.Equal(decimal.RequireFromString("10")))
	assert.True(t, fields.CompensatedEnergy.Value.Equal(decimal.RequireFromString("-5")))
	assert.True(t, fields.PublicContribution.Equal(decimal.RequireFromString("3.5")))

	// 50.25 + 10.00 - 5.00 + 3.50
	assert.True(t, fields.TotalAmount.Equal(decimal.RequireFromString("58.75")),
		"total = %s", fields.TotalAmount)
}

func TestParseFieldsReferencyMonthFromNewestHistoryEntry(t *testing.T) {
	fields, err := ParseFields(sampleBill)
	require.NoError(t, err)

	require.Len(t, fields.History, 2)
	assert.Equal(t, "JAN", fields.History[0].Month)
	assert.Equal(t, "24", fields.History[0].Year)
	assert.Equal(t, "506", fields.History[0].Consumption)
	assert.Equal(t, "DEZ", fields.History[1].Month)
	assert.Equal(t, "23", fields.History[1].Year)
	assert.Equal(t, "494", fields.History[1].Consumption)

	assert.Equal(t, "JAN/24", fields.ReferencyMonth)
}

func TestParseFieldsThousandsSeparator(t *testing.T) {
	text := strings.Replace(sampleBill,
		"Energia ElétricakWh 100,0 0,50250000 50,25",
		"Energia ElétricakWh 2.500,0 0,50250000 1.234,56", 1)

	fields, err := ParseFields(text)
	require.NoError(t, err)

	assert.True(t, fields.EnergyEletric.Quantity.Equal(decimal.RequireFromString("2500")),
		"quantity = %s", fields.EnergyEletric.Quantity)
	assert.True(t, fields.EnergyEletric.Value.Equal(decimal.RequireFromString("1234.56")),
		"value = %s", fields.EnergyEletric.Value)
}

func TestParseFieldsMissingRequiredField(t *testing.T) {
	cases := []struct {
		field  string
		remove string
	}{
		{"installation", "Nº DA INSTALAÇÃO 3001234567\n"},
		{"client", "Nº DO CLIENTE\n7001234567\n"},
		{"dueDate", "Valor a pagar\n12/02/2024 58,75\n"},
		{"notaFiscal", "NOTA FISCAL Nº 987654321\n"},
		{"band", "Band. Verde\n"},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			text := strings.Replace(sampleBill, tc.remove, "", 1)
			_, err := ParseFields(text)

			var fieldErr *FieldNotFoundError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.field, fieldErr.Field)
		})
	}
}

func TestParseFieldsMissingHistoryFailsAsReferencyMonth(t *testing.T) {
	idx := strings.Index(sampleBill, "Histórico de Consumo")
	require.Positive(t, idx)

	_, err := ParseFields(sampleBill[:idx])

	var fieldErr *FieldNotFoundError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "referencyMonth", fieldErr.Field)
}

func TestParseFieldsMissingEnergyLinesDefaultToZero(t *testing.T) {
	text := strings.Replace(sampleBill, "Energia SCEE s/ ICMSkWh 100 0,10000000 10,00\n", "", 1)
	text = strings.Replace(text, "Energia compensada GD IkWh 100 0,05000000 -5,00\n", "", 1)

	fields, err := ParseFields(text)
	require.NoError(t, err)

	assert.True(t, fields.EnergySCEE.Quantity.IsZero())
	assert.True(t, fields.EnergySCEE.Value.IsZero())
	assert.True(t, fields.EnergySCEE.UnitPrice.IsZero())
	assert.True(t, fields.CompensatedEnergy.Value.IsZero())

	// 50.25 + 0 + 0 + 3.50
	assert.True(t, fields.TotalAmount.Equal(decimal.RequireFromString("53.75")),
		"total = %s", fields.TotalAmount)
}

func TestParseFieldsMissingContributionDefaultsToZero(t *testing.T) {
	text := strings.Replace(sampleBill, "Contrib Ilum Publica Municipal 3,50\n", "", 1)

	fields, err := ParseFields(text)
	require.NoError(t, err)

	assert.True(t, fields.PublicContribution.IsZero())
	assert.True(t, fields.TotalAmount.Equal(decimal.RequireFromString("55.25")),
		"total = %s", fields.TotalAmount)
}

func TestParseFieldsHistorySkipsFooterNoise(t *testing.T) {
	text := strings.Replace(sampleBill,
		"DEZ/23 494 16,46 30\n",
		"DEZ/23 494 16,46 30\nTOTAL 1000\n", 1)

	fields, err := ParseFields(text)
	require.NoError(t, err)

	// the footer line has no "/" in its first token and is dropped
	require.Len(t, fields.History, 2)
	assert.Equal(t, "DEZ", fields.History[1].Month)
}

func TestParseDecimalBrazilianLocale(t *testing.T) {
	d, err := parseDecimal("1.234,56", moneyScale)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.56")), "got %s", d)

	d, err = parseDecimal("0,50250000", unitPriceScale)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.5025")), "got %s", d)

	_, err = parseDecimal("abc", moneyScale)
	assert.Error(t, err)
}
