package topic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Label names a financial topic recognised by keyword matching.
type Label string

const (
	Neutral       Label = "neutral"
	Market        Label = "mercado"
	Rates         Label = "juros"
	Performance   Label = "desempenho"
	ETF           Label = "etf"
	Liquidity     Label = "liquidez"
	Profitability Label = "rentabilidade"
	Indebtedness  Label = "endividamento"
	CashFlow      Label = "fluxo_de_caixa"
)

// Decision is the strongest topic found in a text.
type Decision struct {
	Topic Label
	Score int
}

// labelOrder fixes tie-breaking so results do not depend on map iteration.
var labelOrder = []Label{Market, Rates, Performance, ETF, Liquidity, Profitability, Indebtedness, CashFlow}

// Keywords are stored without accents; input is folded the same way.
var keywordBuckets = map[Label][]string{
	Market: {
		"mercado hoje", "como esta o mercado", "ibovespa", "bolsa hoje", "dolar", "s&p", "pregao",
		"volatilidade", "indice", "b3",
	},
	Rates: {
		"taxa de juros", "juros", "selic", "copom", "renda fixa", "custo de capital", "politica monetaria",
	},
	Performance: {
		"melhor desempenho", "maiores altas", "valorizacao", "rendimento", "performance", "subiram",
		"destaque", "acoes que mais",
	},
	ETF: {
		"etf", "exchange traded fund", "bova11", "ivvb11", "fundo de indice", "fundo negociado em bolsa",
	},
	Liquidity: {
		"liquidez corrente", "liquidez seca", "liquidez imediata", "liquidez geral", "ativo circulante",
		"passivo circulante", "capital de giro", "caixa e equivalentes",
	},
	Profitability: {
		"lucro liquido", "margem bruta", "margem liquida", "margem ebitda", "ebitda", "roe", "roa",
		"receita liquida", "resultado operacional", "rentabilidade",
	},
	Indebtedness: {
		"divida liquida", "endividamento", "emprestimos e financiamentos", "alavancagem", "debentures",
		"passivo nao circulante", "patrimonio liquido",
	},
	CashFlow: {
		"fluxo de caixa", "atividades operacionais", "atividades de investimento", "atividades de financiamento",
		"geracao de caixa", "capex", "dividendos pagos",
	},
}

// Analyze returns the topic with the most keyword hits, or Neutral.
func Analyze(text string) Decision {
	scores := Score(text)

	best := Decision{Topic: Neutral}
	for _, label := range labelOrder {
		if s := scores[label]; s > best.Score {
			best = Decision{Topic: label, Score: s}
		}
	}
	return best
}

// Score counts keyword hits per topic, three points per distinct keyword.
func Score(text string) map[Label]int {
	normalized := Fold(text)
	scores := make(map[Label]int)
	if normalized == "" {
		return scores
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}
	return scores
}

// Keywords returns the folded keywords of a topic.
func Keywords(label Label) []string {
	return append([]string(nil), keywordBuckets[label]...)
}

// Fold lowercases, trims and strips accents so "Balanço" matches "balanco".
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
