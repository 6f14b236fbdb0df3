package market

// ToolName is the registered name of a callable market tool.
type ToolName string

const (
	ToolAssetQuote      ToolName = "getAssetQuote"
	ToolCompareAssets   ToolName = "compareMultipleAssets"
	ToolIncomeStatement ToolName = "getIncomeStatement"
	ToolInflation       ToolName = "getInflation"
	ToolPrimeRate       ToolName = "getPrimeRate"
	ToolIGPM            ToolName = "getIGPM"
	ToolIPCA            ToolName = "getIPCA"
)

// AllTools lists every tool in the order they are offered to the model.
func AllTools() []ToolName {
	return []ToolName{
		ToolAssetQuote,
		ToolCompareAssets,
		ToolIncomeStatement,
		ToolInflation,
		ToolPrimeRate,
		ToolIGPM,
		ToolIPCA,
	}
}

// Known reports whether name is one of the registered tools.
func Known(name string) bool {
	for _, t := range AllTools() {
		if string(t) == name {
			return true
		}
	}
	return false
}

// Series identifies a bundled monthly index.
type Series string

const (
	SeriesIGPM Series = "IGPM"
	SeriesIPCA Series = "IPCA"
)
