package medicamentos

import (
	"medicamentos-etl/core/dataset"
)

// leadingColumns and trailingColumns frame the price columns in output order.
var (
	leadingColumns = []string{
		ColIdentifier, ColClasseTerapeutica, ColPrincipioAtivo,
		ColLaboratorio, ColCNPJ, ColRegistroCMED, ColProduto, ColApresentacao,
		ColTipoProduto, ColTarja, ColCodigoGGREM, ColRegimeDePreco,
	}
	trailingColumns = []string{ColRestricaoHospitalar, ColListaConcessao}
)

// Columns returns the canonical schema in output order.
func Columns() []dataset.Column {
	cols := make([]dataset.Column, 0, len(leadingColumns)+len(PriceColumns)+len(trailingColumns))
	for _, c := range leadingColumns {
		cols = append(cols, dataset.Column{Name: c, Type: dataset.Text})
	}
	for _, c := range PriceColumns {
		cols = append(cols, dataset.Column{Name: c, Type: dataset.Numeric})
	}
	for _, c := range trailingColumns {
		cols = append(cols, dataset.Column{Name: c, Type: dataset.Text})
	}
	return cols
}

// Key returns the primary key of the canonical table under a policy.
func Key(policy MatchPolicy) []string {
	if policy == MatchAll {
		return []string{ColIdentifier, ColRegistroCMED}
	}
	return []string{ColIdentifier}
}

// ToTable converts canonical records into a publishable table.
func ToTable(name string, records []CanonicalRecord, policy MatchPolicy) *dataset.Table {
	t := &dataset.Table{
		Name:    name,
		Columns: Columns(),
		Key:     Key(policy),
		Rows:    make([][]any, 0, len(records)),
	}
	for _, r := range records {
		row := make([]any, 0, len(t.Columns))
		for _, v := range []string{
			r.Identifier, r.ClasseTerapeutica, r.PrincipioAtivo,
			r.Laboratorio, r.CNPJ, r.RegistroCMED, r.Produto, r.Apresentacao,
			r.TipoProduto, r.Tarja, r.CodigoGGREM, r.RegimeDePreco,
		} {
			row = append(row, textCell(v))
		}
		for _, p := range r.Prices.Values() {
			if p == nil {
				row = append(row, nil)
				continue
			}
			row = append(row, *p)
		}
		row = append(row, textCell(r.RestricaoHospitalar), textCell(r.ListaConcessao))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ReadExchangeFile loads a canonical exchange file written by Transform.
func ReadExchangeFile(path, name string, policy MatchPolicy) (*dataset.Table, error) {
	raw, err := dataset.ReadRawFile(path, dataset.ReadOptions{Delimiter: dataset.DefaultDelimiter})
	if err != nil {
		return nil, err
	}
	t, _, err := dataset.FromRaw(raw, name, Columns(), Key(policy))
	if err != nil {
		return nil, err
	}
	return t, nil
}

func textCell(v string) any {
	if v == "" {
		return nil
	}
	return v
}
