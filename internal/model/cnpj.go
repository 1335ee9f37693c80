package model

// NormalizeCNPJ strips punctuation from a CNPJ and returns the bare 14-digit
// form. The second return is false when the input does not contain exactly
// 14 digits or fails check-digit validation.
func NormalizeCNPJ(raw string) (string, bool) {
	digits := make([]byte, 0, 14)
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) != 14 {
		return "", false
	}

	s := string(digits)
	if !validCNPJDigits(s) {
		return "", false
	}
	return s, true
}

// validCNPJDigits verifies the two CNPJ check digits. All-same-digit
// sequences (like 00000000000000) are rejected outright.
func validCNPJDigits(s string) bool {
	same := true
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	first := cnpjCheckDigit(s[:12], []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	if int(s[12]-'0') != first {
		return false
	}
	second := cnpjCheckDigit(s[:13], []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	return int(s[13]-'0') == second
}

func cnpjCheckDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}
