package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var solesPrinter = message.NewPrinter(language.MustParse("es-PE"))

// FormatSoles renders an amount in Peruvian Soles for user-facing
// messages, e.g. "S/ 1,250.50".
func FormatSoles(amount float64) string {
	return solesPrinter.Sprintf("S/ %.2f", amount)
}
