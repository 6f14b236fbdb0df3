package render

import "github.com/dalio-ai/dalio/backend/internal/model/market"

// LoadingSentence is shown while a tool call is in flight.
func LoadingSentence(name market.ToolName) (string, bool) {
	switch name {
	case market.ToolAssetQuote:
		return "Buscando a cotação mais recente na B3...", true
	case market.ToolCompareAssets:
		return "Buscando o histórico de preços para comparar os ativos...", true
	case market.ToolIncomeStatement:
		return "Consultando o demonstrativo de resultados da empresa...", true
	case market.ToolInflation:
		return "Consultando a série histórica da inflação...", true
	case market.ToolPrimeRate:
		return "Consultando a série histórica da taxa Selic...", true
	case market.ToolIGPM:
		return "Calculando a variação do IGP-M no período...", true
	case market.ToolIPCA:
		return "Calculando a variação do IPCA no período...", true
	}
	return "", false
}

// Fallback is shown under a resolved tool block when the model wrote no
// follow-up text.
func Fallback(name market.ToolName) (string, bool) {
	switch name {
	case market.ToolAssetQuote:
		return "Esses são os dados mais recentes do ativo. Posso comparar com outros papéis ou analisar os resultados da empresa.", true
	case market.ToolCompareAssets:
		return "Essa é a evolução dos preços de fechamento no período. Posso detalhar o desempenho de algum dos ativos.", true
	case market.ToolIncomeStatement:
		return "Esse é o demonstrativo de resultados do período informado. Posso explicar qualquer uma das linhas.", true
	case market.ToolInflation:
		return "Essa é a inflação registrada no período. Posso comparar com a taxa Selic do mesmo intervalo.", true
	case market.ToolPrimeRate:
		return "Essa é a trajetória da taxa Selic no período. Posso comparar com a inflação do mesmo intervalo.", true
	case market.ToolIGPM:
		return "Essa é a variação mensal do IGP-M e o acumulado no período.", true
	case market.ToolIPCA:
		return "Essa é a variação mensal do IPCA e o acumulado no período.", true
	}
	return "", false
}
