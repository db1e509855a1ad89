package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
)

// FieldNotFoundError indicates that a mandatory field's pattern did not
// match the document text. The field name identifies which rule failed,
// which is the main diagnostic for a layout mismatch.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Field)
}

// EnergyValues holds the three numeric sub-fields of one tariff category.
// Each sub-field degrades to zero independently when its capture is absent.
type EnergyValues struct {
	Quantity  decimal.Decimal // kWh, 4 decimal places
	Value     decimal.Decimal // BRL, 4 decimal places; negative for credits
	UnitPrice decimal.Decimal // BRL/kWh, 8 decimal places
}

// RawFields is the flat bag of typed values pulled out of one bill.
type RawFields struct {
	Installation       string
	Client             string
	DueDate            string
	NotaFiscal         string
	Band               string
	EnergyEletric      EnergyValues
	EnergySCEE         EnergyValues
	CompensatedEnergy  EnergyValues
	PublicContribution decimal.Decimal
	History            []domain.ConsumptionEntry
	ReferencyMonth     string
	TotalAmount        decimal.Decimal
}

// scalarRule locates one scalar field. Patterns are anchored to section
// headers that appear exactly once in the supported layout, so the first
// match is the only match.
type scalarRule struct {
	field    string
	re       *regexp.Regexp
	required bool
	assign   func(*RawFields, string)
}

var scalarRules = []scalarRule{
	{
		field:    "installation",
		re:       regexp.MustCompile(`Nº DA INSTALAÇÃO\s+(\d+)`),
		required: true,
		assign:   func(f *RawFields, v string) { f.Installation = v },
	},
	{
		field:    "client",
		re:       regexp.MustCompile(`(?s)Nº DO CLIENTE.*?(\d+)\n`),
		required: true,
		assign:   func(f *RawFields, v string) { f.Client = v },
	},
	{
		field:    "dueDate",
		re:       regexp.MustCompile(`(?s)Valor a pagar.*?(\d+\S+\D+\d+)\s`),
		required: true,
		assign:   func(f *RawFields, v string) { f.DueDate = v },
	},
	{
		field:    "notaFiscal",
		re:       regexp.MustCompile(`NOTA FISCAL Nº\s+(\d+)`),
		required: true,
		assign:   func(f *RawFields, v string) { f.NotaFiscal = v },
	},
	{
		field:    "band",
		re:       regexp.MustCompile(`Band\. (\w+)`),
		required: true,
		assign:   func(f *RawFields, v string) { f.Band = v },
	},
	{
		field: "publicContribution",
		re:    regexp.MustCompile(`Contrib Ilum Publica Municipal\s+(\d+\D+\d+)`),
		assign: func(f *RawFields, v string) {
			f.PublicContribution = parseDecimalOrZero(v, moneyScale)
		},
	},
}

// energyRule locates one tariff category line. Capture order follows the
// printed layout: quantity, unit price, value.
type energyRule struct {
	category domain.EnergyType
	re       *regexp.Regexp
	assign   func(*RawFields, EnergyValues)
}

var energyRules = []energyRule{
	{
		category: domain.EnergyEletric,
		re:       regexp.MustCompile(`Energia ElétricakWh\s+([\d,.]+)\s+([\d,.]+)\s+(-?[\d,.]+)`),
		assign:   func(f *RawFields, v EnergyValues) { f.EnergyEletric = v },
	},
	{
		category: domain.EnergySCEE,
		re:       regexp.MustCompile(`Energia SCEE s/ ICMSkWh\s+([\d,.]+)\s+([\d,.]+)\s+(-?[\d,.]+)`),
		assign:   func(f *RawFields, v EnergyValues) { f.EnergySCEE = v },
	},
	{
		category: domain.CompensatedEnergy,
		re:       regexp.MustCompile(`Energia compensada GD IkWh\s+([\d,.]+)\s+([\d,.]+)\s+(-?[\d,.]+)`),
		assign:   func(f *RawFields, v EnergyValues) { f.CompensatedEnergy = v },
	},
}

var historyBlockRe = regexp.MustCompile(`(?s)Histórico de Consumo.*?Reservado ao Fisco`)

const (
	moneyScale     = 4
	unitPriceScale = 8
)

// ParseFields applies the rule tables to the document text. It is a pure
// function: no I/O, deterministic for a given input.
//
// A missing required scalar fails the whole extraction with
// *FieldNotFoundError; missing energy sub-fields degrade to zero. The
// referency month is derived from the newest history entry and the total
// amount is the sum of the three category values plus the public lighting
// contribution. The sum is not reconciled against any total printed on the
// bill.
func ParseFields(text string) (*RawFields, error) {
	fields := &RawFields{}

	for _, rule := range scalarRules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			if rule.required {
				return nil, &FieldNotFoundError{Field: rule.field}
			}
			continue
		}
		rule.assign(fields, strings.TrimSpace(m[1]))
	}

	for _, rule := range energyRules {
		rule.assign(fields, extractEnergy(text, rule.re))
	}

	fields.History = extractHistory(text)
	if len(fields.History) == 0 {
		return nil, &FieldNotFoundError{Field: "referencyMonth"}
	}
	fields.ReferencyMonth = fields.History[0].Month + "/" + fields.History[0].Year

	fields.TotalAmount = fields.EnergyEletric.Value.
		Add(fields.EnergySCEE.Value).
		Add(fields.CompensatedEnergy.Value).
		Add(fields.PublicContribution)

	return fields, nil
}

// extractEnergy pulls the three numeric groups of one category line. A
// missing line or an unparsable group yields zero for that sub-field only.
func extractEnergy(text string, re *regexp.Regexp) EnergyValues {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return EnergyValues{}
	}
	return EnergyValues{
		Quantity:  parseDecimalOrZero(m[1], moneyScale),
		UnitPrice: parseDecimalOrZero(m[2], unitPriceScale),
		Value:     parseDecimalOrZero(m[3], moneyScale),
	}
}

// extractHistory isolates the consumption table and collects its rows in
// document order (most recent month first). The first two lines of the
// block are headers; lines whose first token has no "/" are footer noise
// and are skipped.
func extractHistory(text string) []domain.ConsumptionEntry {
	block := historyBlockRe.FindString(text)
	if block == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSpace(block), "\n")
	var entries []domain.ConsumptionEntry
	for i := 2; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.Contains(line, "Reservado ao Fisco") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 || !strings.Contains(parts[0], "/") {
			continue
		}
		monthYear := strings.SplitN(parts[0], "/", 2)
		entries = append(entries, domain.ConsumptionEntry{
			Month:       monthYear[0],
			Year:        monthYear[1],
			Consumption: parts[1],
		})
	}
	return entries
}

// parseDecimal normalizes a Brazilian-locale numeric string ("." thousands
// separator, "," decimal separator) and parses it at the given scale.
func parseDecimal(s string, scale int32) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	return d.Round(scale), nil
}

func parseDecimalOrZero(s string, scale int32) decimal.Decimal {
	d, err := parseDecimal(s, scale)
	if err != nil {
		return decimal.Zero
	}
	return d
}
