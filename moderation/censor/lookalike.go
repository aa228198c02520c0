package censor

import (
	"regexp"
	"strings"
)

// Visual (and common transliteration) substitutes for each expected letter. The letter itself is always part of its class.
var lookalikes = map[rune]string{
	// cyrillic
	'а': "a@4",
	'б': "6b",
	'в': "b8",
	'г': "r",
	'д': "d",
	'е': "eё3",
	'ё': "eе",
	'з': "3z",
	'и': "uiі",
	'й': "uiи",
	'к': "k",
	'л': "l",
	'м': "m",
	'н': "hn",
	'о': "o0",
	'п': "pn",
	'р': "p",
	'с': "cs$",
	'т': "t",
	'у': "yu",
	'ф': "f",
	'х': "xh",
	'ч': "4",
	'ш': "w",
	'щ': "w",
	'ь': "b",
	'э': "e",
	// latin
	'a': "а@4",
	'b': "вь6",
	'c': "с(",
	'e': "е3ё",
	'g': "9",
	'h': "н",
	'i': "1!l|і",
	'k': "к",
	'l': "1|i",
	'm': "м",
	'o': "о0",
	'p': "р",
	's': "$5ѕ",
	't': "т7",
	'u': "и",
	'x': "х",
	'y': "у",
}

// Anything which is not a word rune may sit between the letters of a term ("х-у-й", "f a g").
const separatorClass = `[^\p{L}\p{N}_]*`

// Builds the matching expression for a single banned term: one case-insensitive character class per letter, joined by optional separators.
func compileTerm(term string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?i)")
	first := true
	for _, r := range term {
		if !first {
			sb.WriteString(separatorClass)
		}
		first = false
		sb.WriteString(charClass(r))
	}
	return regexp.Compile(sb.String())
}

func charClass(r rune) string {
	seen := map[rune]bool{}
	var sb strings.Builder
	sb.WriteByte('[')
	for _, c := range string(r) + lookalikes[r] {
		if seen[c] {
			continue
		}
		seen[c] = true
		if strings.ContainsRune(`\]^-[`, c) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	sb.WriteByte(']')
	return sb.String()
}
