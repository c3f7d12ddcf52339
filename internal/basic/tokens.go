// Package basic implements the BASIC ROM front-end's program store: a
// linked list of tokenized lines held in CPU RAM, with keyword
// tokenization/detokenization that must round-trip byte-for-byte. It
// follows the rest of the device set's register-free, plain-Go-struct
// style.
package basic

import "strings"

// keywords is the canonical ordering; token byte 0x80+i encodes keywords[i]
// for i < 0x80-0x00 (we only need the low set here), extended keywords
// beyond that use an escape byte followed by an index.
var keywords = []string{
	"END", "FOR", "NEXT", "DATA", "INPUT", "DIM", "READ", "LET",
	"GOTO", "RUN", "IF", "RESTORE", "GOSUB", "RETURN", "REM", "STOP",
	"ON", "WAIT", "LOAD", "SAVE", "DEF", "POKE", "PRINT", "CONT",
	"LIST", "CLEAR", "NEW", "TAB(", "TO", "FN", "SPC(", "THEN",
	"NOT", "STEP", "+", "-", "*", "/", "^", "AND",
	"OR", ">", "=", "<", "SGN", "INT", "ABS", "USR",
	"FRE", "POS", "SQR", "RND", "LOG", "EXP", "COS", "SIN",
	"TAN", "ATN", "PEEK", "LEN", "STR$", "VAL", "ASC", "CHR$",
	"LEFT$", "RIGHT$", "MID$", "GO",
}

const (
	tokenBase   = 0x80
	escapeByte  = 0xFE
	maxBaseKeys = 0xFF - tokenBase
)

// extendedKeywords are addressed via escapeByte+index and cover spec
// vocabulary that doesn't fit the original 0x80-0xFF single-byte budget.
var extendedKeywords = []string{
	"DO", "WHILE", "UNTIL", "LOOP", "ELSE", "ELSEIF", "ENDIF",
	"SPRITE", "GCOLOR", "PLOT", "LINE", "RECT", "CIRCLE",
}

func lookupKeyword(tok uint8) (string, bool) {
	if int(tok)-tokenBase >= 0 && int(tok)-tokenBase < len(keywords) {
		return keywords[int(tok)-tokenBase], true
	}
	return "", false
}

func lookupExtended(idx uint8) (string, bool) {
	if int(idx) < len(extendedKeywords) {
		return extendedKeywords[int(idx)], true
	}
	return "", false
}

// findKeyword returns the longest keyword in text (case-insensitive) at
// position i, its token byte sequence, and its length in source chars.
func findKeyword(text string, i int) (tokenBytes []byte, srcLen int, ok bool) {
	upper := strings.ToUpper(text[i:])
	best := -1
	bestLen := 0
	for idx, kw := range keywords {
		if strings.HasPrefix(upper, kw) && len(kw) > bestLen {
			best = idx
			bestLen = len(kw)
		}
	}
	bestIsExtended := false
	bestExtIdx := -1
	for idx, kw := range extendedKeywords {
		if strings.HasPrefix(upper, kw) && len(kw) > bestLen {
			best = -1
			bestExtIdx = idx
			bestIsExtended = true
			bestLen = len(kw)
		}
	}
	if bestLen == 0 {
		return nil, 0, false
	}
	if bestIsExtended {
		return []byte{escapeByte, uint8(bestExtIdx)}, bestLen, true
	}
	return []byte{uint8(tokenBase + best)}, bestLen, true
}
