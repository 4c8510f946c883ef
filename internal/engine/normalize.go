package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// ansiRe matches CSI-style terminal escape sequences, including the 8-bit CSI.
var ansiRe = regexp.MustCompile(`[\x{1b}\x{9b}][\[()#;?]*(?:[0-9]{1,4}(?:;[0-9]{0,4})*)?[0-9A-ORZcf-nqry=><]`)

var (
	timestampRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)s`)
	logIndexRe  = regexp.MustCompile(`^(\d+)\s+`)
)

// Normalized is the result of stripping a raw line down to its message.
type Normalized struct {
	Timestamp float64
	LogIndex  int
	Message   string
}

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// Normalize strips escape sequences, the leading "<seconds>s" timestamp and,
// after a timestamp, the numeric line index. Lines without a timestamp keep
// their full trimmed text as the message and a zero timestamp.
func Normalize(raw string) Normalized {
	clean := strings.TrimSpace(StripANSI(raw))

	var n Normalized
	n.Message = clean

	m := timestampRe.FindStringSubmatch(clean)
	if m == nil {
		return n
	}
	if ts, err := strconv.ParseFloat(m[1], 64); err == nil {
		n.Timestamp = ts
	}

	msg := strings.TrimSpace(clean[len(m[0]):])
	if im := logIndexRe.FindStringSubmatch(msg); im != nil {
		if idx, err := strconv.Atoi(im[1]); err == nil {
			n.LogIndex = idx
		}
		msg = msg[len(im[0]):]
	}
	n.Message = msg
	return n
}
