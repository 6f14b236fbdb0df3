package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalio-ai/dalio/backend/internal/model/index"
)

// PromptTemplate groups the fixed instructions of a system prompt.
type PromptTemplate struct {
	SystemPrompt string
	ToolHints    []string
	ContextRules []string
}

// PromptManager builds the analyst system prompt.
type PromptManager struct {
	template *PromptTemplate
	indices  index.Store
	now      func() time.Time
}

// NewPromptManager creates a prompt manager over the index glossary.
func NewPromptManager(indices index.Store) *PromptManager {
	return &PromptManager{
		template: defaultTemplate(),
		indices:  indices,
		now:      time.Now,
	}
}

// BuildSystemPrompt renders the analyst instructions with today's date and the index glossary.
func (pm *PromptManager) BuildSystemPrompt() string {
	var glossary []string
	if pm.indices != nil {
		for _, idx := range pm.indices.List() {
			glossary = append(glossary, fmt.Sprintf("%s: %s", idx.Symbol, idx.Description))
		}
	}

	return fmt.Sprintf(`%s

Data de hoje: %s.

Uso das ferramentas:
- %s

Regras:
- %s

Lista de índices que o usuário pode querer perguntar (o símbolo e o que ele representa):

%s`,
		pm.template.SystemPrompt,
		pm.now().Format("02/01/2006"),
		strings.Join(pm.template.ToolHints, "\n- "),
		strings.Join(pm.template.ContextRules, "\n- "),
		strings.Join(glossary, "\n"),
	)
}

func defaultTemplate() *PromptTemplate {
	return &PromptTemplate{
		SystemPrompt: "Você é um assistente financeiro especializado em análise de ativos do mercado brasileiro. Quando solicitar informações sobre algum ativo, SEMPRE forneça uma análise detalhada dos dados apresentados, explicando o significado dos valores e possíveis implicações.",
		ToolHints: []string{
			"getAssetQuote para cotação atual de ações, fundos imobiliários, índices e BDRs.",
			"compareMultipleAssets quando o usuário quiser comparar dois ou mais ativos em um período.",
			"getIncomeStatement para a demonstração de resultados; informe a data de encerramento no formato AAAA-MM-DD (em geral 31/12 do ano pedido).",
			"getInflation e getPrimeRate usam datas no formato DD/MM/AAAA.",
			"getIGPM e getIPCA usam mês/ano, por exemplo janeiro/2020.",
		},
		ContextRules: []string{
			"Responda sempre em português do Brasil.",
			"Depois de usar uma ferramenta, explique o resultado em texto; não repita a tabela inteira.",
			"Quando uma ferramenta falhar, explique o problema e sugira uma alternativa.",
			"Não invente valores que não vieram das ferramentas.",
		},
	}
}
