package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Hazard rune ranges flagged during normalization.
const (
	bidiControlLo = 0x202A
	bidiControlHi = 0x202E
	bidiIsoLo     = 0x2066
	bidiIsoHi     = 0x2069

	zeroWidthLo = 0x200B
	zeroWidthHi = 0x200F
	wordJoiner  = 0x2060
	bomRune     = 0xFEFF

	tagCharsLo = 0xE0000
	tagCharsHi = 0xE007F
)

const privateUseRunThreshold = 4

// Normalize decodes, applies NFKC, canonicalizes newlines/BOM, scans for
// hazard runes, and projects shadow text. It populates
// state.Normalized, state.Shadow, state.ShadowMap, and emits structural
// findings; it never mutates state.Original.
func Normalize(state *ScanState) {
	raw := state.Original

	text, hadInvalid := decodeUTF8Lossy(raw)
	if hadInvalid {
		state.AddFinding(Finding{Code: ReasonEncodingInvalid, Weight: 0})
	}

	text = norm.NFKC.String(text)
	text = canonicalizeNewlines(text)
	text = strings.TrimPrefix(text, "﻿")

	scanHazards(state, text)

	state.Normalized = text
	state.Shadow, state.ShadowMap = buildShadow(text)
}

// decodeUTF8Lossy returns text decoded as UTF-8, replacing any invalid byte
// sequence with U+FFFD, and whether any replacement occurred.
func decodeUTF8Lossy(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), false
	}

	var b strings.Builder
	b.Grow(len(raw))
	replaced := false
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			replaced = true
			raw = raw[1:]
			continue
		}
		b.WriteRune(r)
		raw = raw[size:]
	}
	return b.String(), replaced
}

func canonicalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// scanHazards walks the normalized text once, emitting BIDI_CONTROL,
// ZERO_WIDTH, TAG_CHARS, and PRIVATE_USE_RUN findings with span information.
func scanHazards(state *ScanState, text string) {
	runs := []rune(text)
	privateUseStart := -1

	flushPrivateUse := func(endIdx int) {
		if privateUseStart >= 0 && endIdx-privateUseStart >= privateUseRunThreshold {
			span := Span{Start: privateUseStart, End: endIdx}
			state.AddFinding(Finding{Code: ReasonPrivateUseRun, Span: &span, Weight: hazardWeights[ReasonPrivateUseRun]})
			state.RecordHazard(ReasonPrivateUseRun, span)
		}
		privateUseStart = -1
	}

	for i, r := range runs {
		switch {
		case (r >= bidiControlLo && r <= bidiControlHi) || (r >= bidiIsoLo && r <= bidiIsoHi):
			span := Span{Start: i, End: i + 1}
			state.AddFinding(Finding{Code: ReasonBidiControl, Span: &span, Weight: hazardWeights[ReasonBidiControl]})
			state.RecordHazard(ReasonBidiControl, span)
		case (r >= zeroWidthLo && r <= zeroWidthHi) || r == wordJoiner || (r == bomRune && i > 0):
			span := Span{Start: i, End: i + 1}
			state.AddFinding(Finding{Code: ReasonZeroWidth, Span: &span, Weight: hazardWeights[ReasonZeroWidth]})
			state.RecordHazard(ReasonZeroWidth, span)
		case r >= tagCharsLo && r <= tagCharsHi:
			span := Span{Start: i, End: i + 1}
			state.AddFinding(Finding{Code: ReasonTagChars, Span: &span, Weight: hazardWeights[ReasonTagChars]})
			state.RecordHazard(ReasonTagChars, span)
		}

		if unicode.Is(unicode.Co, r) {
			if privateUseStart < 0 {
				privateUseStart = i
			}
		} else {
			flushPrivateUse(i)
		}
	}
	flushPrivateUse(len(runs))
}

// buildShadow produces the collapsed alphanumeric shadow: lowercased text
// with all non-[a-z0-9] runes removed, plus an index mapping each shadow
// rune back to its rune offset in the normalized text.
func buildShadow(text string) (string, []int) {
	var shadow strings.Builder
	shadowMap := make([]int, 0, len(text))

	runeIdx := 0
	for _, r := range text {
		lower := unicode.ToLower(r)
		if (lower >= 'a' && lower <= 'z') || (lower >= '0' && lower <= '9') {
			shadow.WriteRune(lower)
			shadowMap = append(shadowMap, runeIdx)
		}
		runeIdx++
	}
	return shadow.String(), shadowMap
}
