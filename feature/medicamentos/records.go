package medicamentos

// AnvisaRecord is a normalized ANVISA registration row.
type AnvisaRecord struct {
	// Row is the 1-based data row in the source file.
	Row               int
	Identifier        string
	ClasseTerapeutica string
	PrincipioAtivo    string
}

// Prices holds the maximum consumer price per ICMS band. Nil means not informed.
type Prices struct {
	SemImpostos *float64
	SemICMS     *float64
	ICMS12      *float64
	ICMS12ALC   *float64
	ICMS17      *float64
	ICMS17ALC   *float64
	ICMS17p5    *float64
	ICMS17p5ALC *float64
	ICMS18      *float64
	ICMS18ALC   *float64
	ICMS19      *float64
	ICMS19ALC   *float64
	ICMS19p5    *float64
	ICMS20      *float64
	ICMS20ALC   *float64
	ICMS20p5    *float64
	ICMS20p5ALC *float64
	ICMS21      *float64
	ICMS21ALC   *float64
	ICMS22      *float64
	ICMS22ALC   *float64
	ICMS22p5    *float64
	ICMS22p5ALC *float64
	ICMS23      *float64
	ICMS23ALC   *float64
}

// slots returns pointers to every field in PriceColumns order.
func (p *Prices) slots() []**float64 {
	return []**float64{
		&p.SemImpostos, &p.SemICMS,
		&p.ICMS12, &p.ICMS12ALC,
		&p.ICMS17, &p.ICMS17ALC,
		&p.ICMS17p5, &p.ICMS17p5ALC,
		&p.ICMS18, &p.ICMS18ALC,
		&p.ICMS19, &p.ICMS19ALC,
		&p.ICMS19p5,
		&p.ICMS20, &p.ICMS20ALC,
		&p.ICMS20p5, &p.ICMS20p5ALC,
		&p.ICMS21, &p.ICMS21ALC,
		&p.ICMS22, &p.ICMS22ALC,
		&p.ICMS22p5, &p.ICMS22p5ALC,
		&p.ICMS23, &p.ICMS23ALC,
	}
}

// Values returns the prices in PriceColumns order.
func (p Prices) Values() []*float64 {
	slots := p.slots()
	out := make([]*float64, len(slots))
	for i, s := range slots {
		out[i] = *s
	}
	return out
}

// Empty reports whether no price is informed.
func (p Prices) Empty() bool {
	for _, v := range p.Values() {
		if v != nil {
			return false
		}
	}
	return true
}

// CMEDRecord is a normalized CMED price row.
type CMEDRecord struct {
	Row                 int
	Laboratorio         string
	CNPJ                string
	RegistroCMED        string
	BaseIdentifier      string
	Produto             string
	Apresentacao        string
	TipoProduto         string
	Tarja               string
	CodigoGGREM         string
	RegimeDePreco       string
	Prices              Prices
	RestricaoHospitalar string
	ListaConcessao      string
}

// CanonicalRecord is one joined (registration, price row) pair.
type CanonicalRecord struct {
	Identifier        string
	ClasseTerapeutica string
	PrincipioAtivo    string
	CMEDRecord
}
