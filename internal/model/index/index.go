package index

// Index describes a market index symbol the assistant can be asked about.
type Index struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Region      string `json:"region,omitempty"`
}

// Seed provides the index glossary injected into the assistant prompt.
func Seed() []Index {
	return []Index{
		{Symbol: "^AORD", Region: "Oceania", Description: "Índice das 200 maiores empresas da Bolsa de Valores da Austrália (ASX)."},
		{Symbol: "^AXJO", Region: "Oceania", Description: "Similar ao ^AORD, representa as 200 maiores empresas da ASX."},
		{Symbol: "^BFX", Region: "Europa", Description: "Índice das 20 maiores empresas da Bolsa de Bruxelas, Bélgica."},
		{Symbol: "^BSESN", Region: "Ásia", Description: "Índice das 30 maiores empresas da Bolsa de Valores de Bombaim, Índia."},
		{Symbol: "^BUK100P", Region: "Europa", Description: "Índice das 100 maiores empresas da Bolsa de Valores de Londres, Reino Unido."},
		{Symbol: "^BVSP", Region: "América do Sul", Description: "Índice das ações mais negociadas da Bolsa de Valores de São Paulo (B3), Brasil."},
		{Symbol: "^CASE30", Region: "África", Description: "Índice das 30 maiores empresas da Bolsa de Valores do Egito."},
		{Symbol: "^DJI", Region: "América do Norte", Description: "Índice das 30 maiores empresas dos Estados Unidos."},
		{Symbol: "^FCHI", Region: "Europa", Description: "Índice das 40 maiores empresas da Bolsa de Valores de Paris, França."},
		{Symbol: "^FTSE", Region: "Europa", Description: "Índice das 100 maiores empresas da Bolsa de Valores de Londres, Reino Unido."},
		{Symbol: "^GDAXI", Region: "Europa", Description: "Índice das 40 maiores empresas da Bolsa de Valores de Frankfurt, Alemanha."},
		{Symbol: "^GSPC", Region: "América do Norte", Description: "Índice das 500 maiores empresas dos Estados Unidos."},
		{Symbol: "^GSPTSE", Region: "América do Norte", Description: "Índice das maiores empresas da Bolsa de Valores de Toronto, Canadá."},
		{Symbol: "^HSI", Region: "Ásia", Description: "Índice das 50 maiores empresas da Bolsa de Valores de Hong Kong."},
		{Symbol: "^IPSA", Region: "América do Sul", Description: "Índice das principais ações da Bolsa de Valores do Chile."},
		{Symbol: "^IXIC", Region: "América do Norte", Description: "Índice de todas as ações listadas na NASDAQ, Estados Unidos."},
		{Symbol: "^JKSE", Region: "Ásia", Description: "Índice das empresas da Bolsa de Valores da Indonésia."},
		{Symbol: "^JN0U.JO", Region: "África", Description: "Índice das 40 maiores empresas da Bolsa de Valores de Joanesburgo, África do Sul."},
		{Symbol: "^KLSE", Region: "Ásia", Description: "Índice das 30 maiores empresas da Bolsa de Valores da Malásia."},
		{Symbol: "^KS11", Region: "Ásia", Description: "Índice das empresas da Bolsa de Valores da Coreia do Sul."},
		{Symbol: "^MERV", Region: "América do Sul", Description: "Índice das principais ações da Bolsa de Valores de Buenos Aires, Argentina."},
		{Symbol: "^MXX", Region: "América do Norte", Description: "Índice das principais ações da Bolsa de Valores do México."},
		{Symbol: "^N100", Region: "Europa", Description: "Índice das 100 maiores empresas da Euronext (bolsas europeias)."},
		{Symbol: "^N225", Region: "Ásia", Description: "Índice das 225 maiores empresas da Bolsa de Valores de Tóquio, Japão."},
		{Symbol: "^NYA", Region: "América do Norte", Description: "Índice de todas as ações listadas na Bolsa de Valores de Nova York, Estados Unidos."},
		{Symbol: "^NZ50", Region: "Oceania", Description: "Índice das 50 maiores empresas da Bolsa de Valores da Nova Zelândia."},
		{Symbol: "^RUT", Region: "América do Norte", Description: "Índice de 2000 pequenas empresas dos Estados Unidos."},
		{Symbol: "^STI", Region: "Ásia", Description: "Índice das 30 maiores empresas da Bolsa de Valores de Singapura."},
		{Symbol: "^STOXX50E", Region: "Europa", Description: "Índice das 50 maiores empresas da zona do euro."},
		{Symbol: "^TA125.TA", Region: "Ásia", Description: "Índice das 125 maiores empresas da Bolsa de Valores de Tel Aviv, Israel."},
		{Symbol: "^TWII", Region: "Ásia", Description: "Índice das empresas da Bolsa de Valores de Taiwan."},
		{Symbol: "^VIX", Region: "América do Norte", Description: "Índice de volatilidade do mercado de ações dos Estados Unidos."},
		{Symbol: "^XAX", Region: "América do Norte", Description: "Índice de todas as ações listadas na NYSE American, Estados Unidos."},
		{Symbol: "IFIX.SA", Region: "América do Sul", Description: "Índice de fundos imobiliários da Bolsa de Valores de São Paulo, Brasil."},
	}
}

// Suggestions are the starter prompts offered on an empty chat.
func Suggestions() []string {
	return []string{
		"Qual o resultado financeiro da Petrobras em 2024?",
		"Compare BTG e Itaú no último ano.",
		"Compare BTLG11 e XPML11 nos últimos 6 meses.",
		"Como está a ação da Magalu hoje?",
		"Quais são os principais indicadores da Vale?",
		"Como está o desempenho do setor bancário em 2024?",
		"Qual a diferença entre ações ON e PN?",
		"BTG está pagando dividendos?",
		"Fale sobre o histórico de dividendos da Taesa.",
		"Qual cenário do Itaú econômico atualmente?",
		"Qual a inflação do Brasil em 2024?",
		"Qual a taxa básica de juros do Brasil em 2024?",
	}
}
