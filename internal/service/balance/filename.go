package balance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCompany is used when a file name carries no CNPJ.
	DefaultCompany = "empresa XPTO"
	// PeriodAnnual marks a yearly balance sheet.
	PeriodAnnual = "Anual"
	prefix       = "balances/"
)

var (
	yearPattern = regexp.MustCompile(`\d{4}`)
	cnpjPattern = regexp.MustCompile(`\d{14}`)
	quarters    = []string{"Q1", "Q2", "Q3", "Q4"}
)

// FileInfo is what a report's file name says about it.
type FileInfo struct {
	CNPJ      string `json:"cnpj,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Year      int    `json:"year"`
	Period    string `json:"period"`
}

// Company returns the library folder for the file.
func (f FileInfo) Company() string {
	if f.CNPJ != "" {
		return "CNPJ: " + f.CNPJ
	}
	return DefaultCompany
}

// Key returns the object key the file is stored under.
func (f FileInfo) Key() string {
	return Key(f.Company(), strconv.Itoa(f.Year), f.Period)
}

// ParseFileName reads year, CNPJ and period from a file name, falling back
// to the current year and the annual period.
func ParseFileName(name string, now time.Time) FileInfo {
	info := FileInfo{Year: now.Year(), Period: PeriodAnnual}

	best := 0
	for _, match := range yearPattern.FindAllString(name, -1) {
		year, err := strconv.Atoi(match)
		if err != nil || year < 1900 || year > 2100 {
			continue
		}
		if year > best {
			best = year
		}
	}
	if best > 0 {
		info.Year = best
	}

	if cnpj := cnpjPattern.FindString(name); cnpj != "" {
		info.CNPJ = cnpj
		info.CompanyID = strings.TrimLeft(cnpj[len(cnpj)-6:], "0")
		if info.CompanyID == "" {
			info.CompanyID = "1"
		}
	}

	if strings.Contains(name, "BP") || strings.Contains(name, "Balanço_Patrimonial") {
		return info
	}
	for _, q := range quarters {
		if strings.Contains(name, q) {
			info.Period = q
			break
		}
	}
	return info
}

// Key builds balances/{company}/{year}/{period}.pdf.
func Key(company, year, period string) string {
	return fmt.Sprintf("%s%s/%s/%s.pdf", prefix, company, year, period)
}
