package scene

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var measureRe = regexp.MustCompile(`=\s*-?\d+(?:\.\d+)?`)

// IsMeasurement сообщает, является ли строка измерением: знак градуса
// или "=" с числом после NFKC-нормализации.
func IsMeasurement(s string) bool {
	n := norm.NFKC.String(s)
	return strings.Contains(n, "°") || measureRe.MatchString(n)
}

// IsMeasurement для текста сцены.
func (t Text) IsMeasurement() bool {
	return IsMeasurement(t.String)
}
