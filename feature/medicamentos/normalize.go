package medicamentos

import (
	"strconv"
	"strings"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/utils"
)

// Sources named in degradations and schema errors.
const (
	SourceAnvisa = "anvisa"
	SourceCMED   = "cmed"
)

// Degradation reasons.
const (
	ReasonEmptyIdentifier     = "empty_identifier"
	ReasonDuplicateIdentifier = "duplicate_identifier"
	ReasonEmptyRegistration   = "empty_registration"
	ReasonUnparseablePrice    = "unparseable_price"
	ReasonNoPrices            = "no_prices"
)

// Degradation is a recoverable per-row problem: a cell became null or the row was dropped.
type Degradation struct {
	Source  string `json:"source"`
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Reason  string `json:"reason"`
	Value   string `json:"value,omitempty"`
	Dropped bool   `json:"dropped"`
}

// NormalizeAnvisa selects and cleans the ANVISA columns. Rows without a registration
// and repeated registrations (after the first) are dropped.
func NormalizeAnvisa(raw *dataset.RawTable, identifierLength int) ([]AnvisaRecord, []Degradation, error) {
	pos, err := locate(raw, SourceAnvisa, anvisaRequired)
	if err != nil {
		return nil, nil, err
	}

	var (
		records = make([]AnvisaRecord, 0, len(raw.Rows))
		degr    []Degradation
		seen    = make(map[string]int, len(raw.Rows))
	)
	for i, rec := range raw.Rows {
		row := i + 1
		rawID := rec[pos[ColIdentifier]]
		id := NormalizeIdentifier(rawID, identifierLength)
		if id == "" {
			degr = append(degr, Degradation{Source: SourceAnvisa, Row: row, Column: ColIdentifier, Reason: ReasonEmptyIdentifier, Value: rawID, Dropped: true})
			continue
		}
		if first, dup := seen[id]; dup {
			degr = append(degr, Degradation{Source: SourceAnvisa, Row: row, Column: ColIdentifier, Reason: ReasonDuplicateIdentifier, Value: "first seen at row " + strconv.Itoa(first), Dropped: true})
			continue
		}
		seen[id] = row
		records = append(records, AnvisaRecord{
			Row:               row,
			Identifier:        id,
			ClasseTerapeutica: strings.TrimSpace(rec[pos[ColClasseTerapeutica]]),
			PrincipioAtivo:    strings.TrimSpace(rec[pos[ColPrincipioAtivo]]),
		})
	}
	return records, degr, nil
}

// NormalizeCMED renames the CMED columns, parses prices and computes the base identifier.
// Unparseable prices become null; rows with no price at all are dropped.
func NormalizeCMED(raw *dataset.RawTable) ([]CMEDRecord, []Degradation, error) {
	canonical := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		name := canonicalHeader(h)
		if _, dup := canonical[name]; !dup {
			canonical[name] = i
		}
	}

	var missing []string
	for _, c := range cmedRequired {
		if _, ok := canonical[c]; !ok {
			missing = append(missing, c)
		}
	}
	pricePos := make([]int, len(PriceColumns))
	anyPrice := false
	for i, c := range PriceColumns {
		p, ok := canonical[c]
		if !ok {
			pricePos[i] = -1
			continue
		}
		pricePos[i] = p
		anyPrice = true
	}
	if !anyPrice {
		missing = append(missing, "any of "+strings.Join(PriceColumns[:2], ", ")+", ...")
	}
	if len(missing) > 0 {
		return nil, nil, &dataset.SchemaError{Source: SourceCMED, Missing: missing}
	}

	cell := func(rec []string, col string) string {
		p, ok := canonical[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(rec[p])
	}

	var (
		records = make([]CMEDRecord, 0, len(raw.Rows))
		degr    []Degradation
	)
	for i, rec := range raw.Rows {
		row := i + 1
		rawReg := cell(rec, ColRegistroCMED)
		reg := utils.DigitsOnly(rawReg)
		if reg == "" {
			degr = append(degr, Degradation{Source: SourceCMED, Row: row, Column: ColRegistroCMED, Reason: ReasonEmptyRegistration, Value: rawReg, Dropped: true})
			continue
		}

		r := CMEDRecord{
			Row:                 row,
			Laboratorio:         cell(rec, ColLaboratorio),
			CNPJ:                cell(rec, ColCNPJ),
			RegistroCMED:        reg,
			BaseIdentifier:      BaseIdentifier(reg),
			Produto:             cell(rec, ColProduto),
			Apresentacao:        cell(rec, ColApresentacao),
			TipoProduto:         cell(rec, ColTipoProduto),
			Tarja:               cell(rec, ColTarja),
			CodigoGGREM:         cell(rec, ColCodigoGGREM),
			RegimeDePreco:       cell(rec, ColRegimeDePreco),
			RestricaoHospitalar: cell(rec, ColRestricaoHospitalar),
			ListaConcessao:      cell(rec, ColListaConcessao),
		}

		var rowDegr []Degradation
		slots := r.Prices.slots()
		for j, p := range pricePos {
			if p < 0 {
				continue
			}
			v := strings.TrimSpace(rec[p])
			f, ok := utils.ParseLocaleNumber(v)
			if !ok {
				if !isBlankPrice(v) {
					rowDegr = append(rowDegr, Degradation{Source: SourceCMED, Row: row, Column: PriceColumns[j], Reason: ReasonUnparseablePrice, Value: v})
				}
				continue
			}
			*slots[j] = &f
		}

		if r.Prices.Empty() {
			degr = append(degr, Degradation{Source: SourceCMED, Row: row, Reason: ReasonNoPrices, Dropped: true})
			continue
		}
		degr = append(degr, rowDegr...)
		records = append(records, r)
	}
	return records, degr, nil
}

// isBlankPrice reports the placeholders CMED uses for "not informed".
func isBlankPrice(v string) bool {
	switch v {
	case "", "-", "--", "NaN", "nan":
		return true
	}
	return false
}

func locate(raw *dataset.RawTable, source string, columns []string) (map[string]int, error) {
	pos := make(map[string]int, len(columns))
	var missing []string
	for _, c := range columns {
		p, ok := raw.Lookup(c)
		if !ok {
			missing = append(missing, c)
			continue
		}
		pos[c] = p
	}
	if len(missing) > 0 {
		return nil, &dataset.SchemaError{Source: source, Missing: missing}
	}
	return pos, nil
}
