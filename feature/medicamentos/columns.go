package medicamentos

import (
	"strings"

	"medicamentos-etl/core/utils"
)

// Canonical column names.
const (
	ColIdentifier          = "NUMERO_REGISTRO_PRODUTO"
	ColClasseTerapeutica   = "CLASSE_TERAPEUTICA"
	ColPrincipioAtivo      = "PRINCIPIO_ATIVO"
	ColLaboratorio         = "LABORATORIO"
	ColCNPJ                = "CNPJ"
	ColRegistroCMED        = "REGISTRO_CMED"
	ColProduto             = "PRODUTO"
	ColApresentacao        = "APRESENTACAO"
	ColTipoProduto         = "TIPO_PRODUTO"
	ColTarja               = "TARJA"
	ColCodigoGGREM         = "CODIGO_GGREM"
	ColRegimeDePreco       = "REGIME_DE_PRECO"
	ColRestricaoHospitalar = "RESTRICAO_HOSPITALAR"
	ColListaConcessao      = "LISTA_DE_CONCESSAO_DE_CREDITO_TRIBUTARIO_PIS_COFINS"
)

// PriceColumns lists the maximum consumer price (PMC) columns in canonical order.
var PriceColumns = []string{
	"PRECO_MAXIMO_AO_CONSUMIDOR_SEM_IMPOSTOS",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_SEM_ICMS",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_12",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_12_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_17",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_17_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_17_5",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_17_5_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_18",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_18_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_19",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_19_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_19_5",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_20",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_20_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_20_5",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_20_5_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_21",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_21_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_22",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_22_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_22_5",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_22_5_AREA_DE_LIVRE_COMERCIO",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_23",
	"PRECO_MAXIMO_AO_CONSUMIDOR_PERCENTUAL_23_AREA_DE_LIVRE_COMERCIO",
}

// anvisaRequired are the ANVISA columns retained downstream.
var anvisaRequired = []string{ColIdentifier, ColClasseTerapeutica, ColPrincipioAtivo}

// cmedRequired must be present in every CMED file. Other descriptive columns become
// null when absent.
var cmedRequired = []string{ColRegistroCMED, ColLaboratorio, ColProduto, ColApresentacao}

// cmedHeaders maps CMED spreadsheet headers to canonical names.
var cmedHeaders = map[string]string{
	"LABORATÓRIO":                         ColLaboratorio,
	"REGISTRO":                            ColRegistroCMED,
	"APRESENTAÇÃO":                        ColApresentacao,
	"TIPO DE PRODUTO (STATUS DO PRODUTO)": ColTipoProduto,
	"CÓDIGO GGREM":                        ColCodigoGGREM,
	"REGIME DE PREÇO":                     ColRegimeDePreco,
	"PMC Sem Impostos":                    PriceColumns[0],
	"PMC 0 %":                             PriceColumns[1],
	"PMC 12 %":                            PriceColumns[2],
	"PMC 12 % ALC":                        PriceColumns[3],
	"PMC 17 %":                            PriceColumns[4],
	"PMC 17 % ALC":                        PriceColumns[5],
	"PMC 17,5 %":                          PriceColumns[6],
	"PMC 17,5 % ALC":                      PriceColumns[7],
	"PMC 18 %":                            PriceColumns[8],
	"PMC 18 % ALC":                        PriceColumns[9],
	"PMC 19 %":                            PriceColumns[10],
	"PMC 19 % ALC":                        PriceColumns[11],
	"PMC 19,5 %":                          PriceColumns[12],
	"PMC 20 %":                            PriceColumns[13],
	"PMC 20 % ALC":                        PriceColumns[14],
	"PMC 20,5 %":                          PriceColumns[15],
	"PMC 20,5 % ALC":                      PriceColumns[16],
	"PMC 21 %":                            PriceColumns[17],
	"PMC 21 % ALC":                        PriceColumns[18],
	"PMC 22 %":                            PriceColumns[19],
	"PMC 22 % ALC":                        PriceColumns[20],
	"PMC 22,5 %":                          PriceColumns[21],
	"PMC 22,5 % ALC":                      PriceColumns[22],
	"PMC 23 %":                            PriceColumns[23],
	"PMC 23 % ALC":                        PriceColumns[24],
	"RESTRIÇÃO HOSPITALAR":                ColRestricaoHospitalar,
	"LISTA DE CONCESSÃO DE CRÉDITO TRIBUTÁRIO (PIS/COFINS)": ColListaConcessao,
}

// cmedHeaderKeys is cmedHeaders keyed by utils.HeaderKey.
var cmedHeaderKeys = func() map[string]string {
	m := make(map[string]string, len(cmedHeaders))
	for raw, canonical := range cmedHeaders {
		m[utils.HeaderKey(raw)] = canonical
	}
	return m
}()

// canonicalHeader maps a raw CMED header to its canonical column name.
// Headers already in canonical form (e.g. "CNPJ", "TARJA") pass through.
func canonicalHeader(raw string) string {
	key := utils.HeaderKey(raw)
	if c, ok := cmedHeaderKeys[key]; ok {
		return c
	}
	return strings.ReplaceAll(key, " ", "_")
}
