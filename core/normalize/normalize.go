package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// maxPasses bounds the fixed-point loop; real input settles in two passes.
const maxPasses = 8

var bracketed = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]|【[^【】]*】|〈[^〈〉]*〉|《[^《》]*》|〔[^〔〕]*〕`)

// separators carry no identity and split tokens.
var separators = map[rune]struct{}{
	'.': {}, '・': {}, '·': {}, '•': {}, '‧': {}, ',': {}, '、': {}, '。': {},
	'\'': {}, '’': {}, '‘': {}, '`': {}, '"': {}, '“': {}, '”': {}, '/': {},
}

// roleTokens are dropped when they trail a name as a separate word.
var roleTokens = map[string]struct{}{
	"監督": {}, "コーチ": {}, "ヘッドコーチ": {}, "アシスタントコーチ": {}, "学生コーチ": {},
	"主将": {}, "副主将": {}, "副将": {}, "キャプテン": {}, "マネージャー": {}, "マネジャー": {},
	"トレーナー": {}, "選手": {}, "部長": {}, "顧問": {}, "主務": {}, "スタッフ": {},
	"様": {}, "さま": {}, "さん": {}, "君": {}, "くん": {}, "氏": {}, "殿": {}, "先生": {},
	"coach": {}, "captain": {}, "manager": {}, "trainer": {}, "staff": {}, "player": {},
}

// honorificPrefixes are dropped when they lead a name as a separate word.
var honorificPrefixes = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "prof": {},
}

// attachedRoles are stripped even without whitespace. Single-rune honorifics are not,
// because they also occur inside given names.
var attachedRoles = sortedByLength([]string{
	"監督", "コーチ", "ヘッドコーチ", "アシスタントコーチ", "学生コーチ",
	"主将", "副主将", "副将", "キャプテン", "マネージャー", "マネジャー",
	"トレーナー", "選手", "部長", "顧問", "主務", "スタッフ",
})

func sortedByLength(words []string) []string {
	sort.SliceStable(words, func(i, j int) bool {
		return utf8.RuneCountInString(words[i]) > utf8.RuneCountInString(words[j])
	})
	return words
}

// String returns the canonical form of a person or team name.
// It is deterministic and a fixed point: String(String(s)) == String(s).
func String(s string) string {
	for i := 0; i < maxPasses; i++ {
		next := pass(s)
		if next == s {
			return next
		}
		s = next
	}
	return s
}

func pass(s string) string {
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	s = stripBrackets(s)
	s = strings.Map(func(r rune) rune {
		if _, ok := separators[r]; ok || unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)

	tokens := trimTokens(strings.Fields(s))
	return trimAttached(join(tokens))
}

func stripBrackets(s string) string {
	for {
		next := bracketed.ReplaceAllString(s, " ")
		if next == s {
			return s
		}
		s = next
	}
}

func trimTokens(tokens []string) []string {
	for len(tokens) > 1 {
		if _, ok := honorificPrefixes[tokens[0]]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	for len(tokens) > 1 {
		if _, ok := roleTokens[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// join glues tokens back together, dropping the space wherever either side is CJK.
func join(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(tokens[i-1])
			next, _ := utf8.DecodeRuneInString(tok)
			if !isCJK(prev) && !isCJK(next) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok)
	}
	return b.String()
}

func trimAttached(s string) string {
	for {
		trimmed := false
		for _, role := range attachedRoles {
			if strings.HasSuffix(s, role) && len(s) > len(role) {
				s = strings.TrimSpace(strings.TrimSuffix(s, role))
				trimmed = true
				break
			}
		}
		if !trimmed {
			return s
		}
	}
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		r == 'ー' || r == '々' || r == '〆'
}

var numberPrefixes = []string{"背番号", "no.", "no", "#", "№"}

// Number canonicalizes an identifying number such as a jersey number or member id.
// Width variants, "#"/"No." prefixes and leading zeros are dropped.
func Number(s string) string {
	s = cases.Fold().String(width.Fold.String(s))
	s = strings.Join(strings.Fields(s), "")
	for _, p := range numberPrefixes {
		if strings.HasPrefix(s, p) && len(s) > len(p) {
			s = s[len(p):]
			break
		}
	}
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return s
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

var datePattern = regexp.MustCompile(`^(\d{4})\D+(\d{1,2})\D+(\d{1,2})\D*$`)
var compactDate = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)

// Date canonicalizes a birth date to YYYY-MM-DD. Unrecognized input is returned
// width-folded and trimmed so that equal spellings still compare equal.
func Date(s string) string {
	s = strings.TrimSpace(width.Fold.String(s))
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		m = compactDate.FindStringSubmatch(s)
	}
	if m == nil {
		return s
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
}
