// Package taxid validates Brazilian CPF and CNPJ numbers using their
// check-digit algorithms.
package taxid

import "strings"

// Kind identifies the document type inferred from the digit count.
type Kind string

const (
	KindCPF     Kind = "cpf"
	KindCNPJ    Kind = "cnpj"
	KindUnknown Kind = "unknown"
)

// Normalize strips punctuation, keeping only digits.
func Normalize(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Detect returns the document kind based on normalized length.
func Detect(doc string) Kind {
	switch len(Normalize(doc)) {
	case 11:
		return KindCPF
	case 14:
		return KindCNPJ
	default:
		return KindUnknown
	}
}

// Valid reports whether doc is a structurally valid CPF or CNPJ.
func Valid(doc string) bool {
	switch Detect(doc) {
	case KindCPF:
		return ValidCPF(doc)
	case KindCNPJ:
		return ValidCNPJ(doc)
	default:
		return false
	}
}

// ValidCPF checks the two CPF verifier digits.
func ValidCPF(doc string) bool {
	digits := Normalize(doc)
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	if digitAt(digits, 9) != cpfCheckDigit(digits, 9) {
		return false
	}
	return digitAt(digits, 10) == cpfCheckDigit(digits, 10)
}

// ValidCNPJ checks the two CNPJ verifier digits.
func ValidCNPJ(doc string) bool {
	digits := Normalize(doc)
	if len(digits) != 14 || allSame(digits) {
		return false
	}
	if digitAt(digits, 12) != cnpjCheckDigit(digits, 12) {
		return false
	}
	return digitAt(digits, 13) == cnpjCheckDigit(digits, 13)
}

func cpfCheckDigit(digits string, pos int) int {
	sum := 0
	weight := pos + 1
	for i := 0; i < pos; i++ {
		sum += digitAt(digits, i) * (weight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

func cnpjCheckDigit(digits string, pos int) int {
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	offset := len(weights) - pos
	sum := 0
	for i := 0; i < pos; i++ {
		sum += digitAt(digits, i) * weights[offset+i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func digitAt(digits string, i int) int {
	return int(digits[i] - '0')
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
