package engine

import (
	"regexp"
	"strconv"
)

var (
	foldRe  = regexp.MustCompile(`\bFold (\d+)\b`)
	epochRe = regexp.MustCompile(`\bEpoch (\d+)\b`)
)

// Context is the fold/epoch position of the scan.
type Context struct {
	Fold  int
	Epoch int
}

// tracker carries the context forward across relevant lines.
type tracker struct {
	ctx Context
}

// update overwrites fold and epoch independently when the message names them.
func (t *tracker) update(msg string) {
	if n, ok := firstInt(foldRe, msg); ok {
		t.ctx.Fold = n
	}
	if n, ok := firstInt(epochRe, msg); ok {
		t.ctx.Epoch = n
	}
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
