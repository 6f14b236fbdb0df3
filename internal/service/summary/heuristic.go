package summary

import (
	"regexp"
	"strings"

	"github.com/dalio-ai/dalio/backend/internal/analysis/topic"
)

const notFound = "Não identificado no documento."

var sentenceSplit = regexp.MustCompile(`[.;\n]+`)

// Heuristic builds a report from the sentences that mention each topic's
// keywords.
func Heuristic(text string) Report {
	sentences := sentenceSplit.Split(text, -1)
	scores := topic.Score(text)

	report := Report{
		Liquidity:     firstMention(sentences, topic.Liquidity),
		Profitability: firstMention(sentences, topic.Profitability),
		Indebtedness:  firstMention(sentences, topic.Indebtedness),
		CashFlow:      firstMention(sentences, topic.CashFlow),
		Source:        SourceHeuristic,
	}

	for _, label := range []topic.Label{topic.Liquidity, topic.Profitability, topic.Indebtedness, topic.CashFlow} {
		if scores[label] == 0 {
			report.AttentionPoints = append(report.AttentionPoints, "Sem informações de "+sectionName[label]+" no documento.")
		}
	}
	if scores[topic.Indebtedness] > scores[topic.Profitability] {
		report.AttentionPoints = append(report.AttentionPoints, "O documento dá mais destaque ao endividamento do que aos resultados.")
	}

	decision := topic.Analyze(text)
	if decision.Topic == topic.Neutral {
		report.Outlook = "Texto insuficiente para uma leitura automática; consulte o documento completo."
	} else {
		report.Outlook = "Leitura automática por palavras-chave, com foco em " + sectionName[decision.Topic] + ". Confirme os números no documento."
	}
	return report
}

var sectionName = map[topic.Label]string{
	topic.Liquidity:     "liquidez",
	topic.Profitability: "rentabilidade",
	topic.Indebtedness:  "endividamento",
	topic.CashFlow:      "fluxo de caixa",
	topic.Market:        "mercado",
	topic.Rates:         "juros",
	topic.Performance:   "desempenho",
	topic.ETF:           "ETFs",
}

func firstMention(sentences []string, label topic.Label) string {
	keywords := topic.Keywords(label)
	for _, sentence := range sentences {
		folded := topic.Fold(sentence)
		for _, kw := range keywords {
			if strings.Contains(folded, kw) {
				return strings.Join(strings.Fields(sentence), " ") + "."
			}
		}
	}
	return notFound
}
