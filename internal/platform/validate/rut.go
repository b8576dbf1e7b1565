package validate

import (
	"strconv"
	"strings"
)

// NormalizeRUT deja el RUT como "12345678-K" (sin puntos, DV en mayúscula).
// Devuelve "" si no tiene forma de RUT.
func NormalizeRUT(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "")

	var body, dv string
	if i := strings.LastIndex(s, "-"); i >= 0 {
		body, dv = s[:i], s[i+1:]
	} else if len(s) > 1 {
		body, dv = s[:len(s)-1], s[len(s)-1:]
	}
	if len(dv) != 1 || len(body) < 6 || len(body) > 8 {
		return ""
	}
	if _, err := strconv.Atoi(body); err != nil {
		return ""
	}
	return body + "-" + dv
}

// ValidRUT verifica forma y dígito verificador (módulo 11).
func ValidRUT(raw string) bool {
	n := NormalizeRUT(raw)
	if n == "" {
		return false
	}
	body, dv := n[:len(n)-2], n[len(n)-1:]
	return checkDigit(body) == dv
}

func checkDigit(body string) string {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		mul++
		if mul > 7 {
			mul = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}
