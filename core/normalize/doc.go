// Package normalize canonicalizes names and identifying attributes so that applicant
// submissions and registry rows can be compared by plain equality.
//
// The same functions are applied to both sides; there is no applicant-only or
// registry-only rule, which keeps matching order-independent and reproducible.
//
// String performs, in order: full/half-width folding, NFC composition, case folding,
// removal of bracketed annotations such as "（主将）", replacement of punctuation that does
// not carry identity (periods, middle dots, commas) by whitespace, removal of trailing
// role or honorific words and leading Latin honorifics, and whitespace collapsing where
// any space touching a CJK character is dropped. The steps repeat until the value no
// longer changes, so String is a fixed point.
package normalize
