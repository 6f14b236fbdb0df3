package render

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const notAvailable = "N/A"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// brl formats an amount in reais, rounded to centavos.
func brl(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return brlDecimal(decimal.NewFromFloat(*v))
}

func brlDecimal(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.BRL)
	if cur == nil {
		return notAvailable
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), money.BRL).Display()
}

// percent formats a value already expressed in percent.
func percent(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return printer.Sprintf("%.2f%%", *v)
}

func signedPercent(v float64) string {
	if v > 0 {
		return printer.Sprintf("+%.2f%%", v)
	}
	return printer.Sprintf("%.2f%%", v)
}

func decimalPercent(d decimal.Decimal) string {
	f, _ := d.Float64()
	return printer.Sprintf("%.2f%%", f)
}

// integer formats counts such as volume with Brazilian digit grouping.
func integer(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return printer.Sprintf("%d", int64(*v))
}

func number(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return printer.Sprintf("%.2f", *v)
}

// rate formats a provider string value such as "4.62" as "4,62%".
func rate(value string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	return decimalPercent(d)
}

// day converts YYYY-MM-DD (or a provider DD/MM/YYYY) into DD/MM/YYYY.
func day(value string) string {
	if value == "" {
		return notAvailable
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.Format("02/01/2006")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format("02/01/2006 15:04")
	}
	return value
}

// month converts YYYY-MM into MM/YYYY.
func month(value string) string {
	if t, err := time.Parse("2006-01", value); err == nil {
		return t.Format("01/2006")
	}
	return value
}
