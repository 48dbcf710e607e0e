package lint

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/thought-machine/annotate/src/core"
)

// parseBatchSize is how many matches we process before yielding the
// processor, so that parsing an enormous lint output can't monopolise it.
const parseBatchSize = 20

// Parse applies the linter's pattern to each line of raw output, appending
// the extracted warnings to the given set in emission order. Matches whose
// line or column captures aren't numeric are skipped; parsing continues with
// the rest of the output.
func Parse(out string, spec *core.LinterSpec, into *core.WarningSet) {
	if out == "" {
		return
	}
	lineIdx, colIdx, msgIdx := submatchIndices(spec.Pattern.SubexpNames())
	matches := 0
	for _, line := range strings.Split(out, "\n") {
		m := spec.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		matches++
		if matches%parseBatchSize == 0 {
			runtime.Gosched()
		}
		w, ok := warningFromMatch(m, lineIdx, colIdx, msgIdx)
		if !ok {
			log.Debug("Skipping unparseable warning from %s: %s", spec.Name, line)
			continue
		}
		into.Add(w)
	}
}

// submatchIndices resolves which submatches hold the line, column and message.
// Named groups take precedence; without a line group the first three
// submatches are taken positionally.
func submatchIndices(names []string) (lineIdx, colIdx, msgIdx int) {
	lineIdx, colIdx, msgIdx = -1, -1, -1
	for i, name := range names {
		switch name {
		case "line":
			lineIdx = i
		case "col":
			colIdx = i
		case "message":
			msgIdx = i
		}
	}
	if lineIdx == -1 {
		lineIdx, colIdx, msgIdx = 1, 2, 3
	}
	return lineIdx, colIdx, msgIdx
}

// warningFromMatch converts one pattern match into a warning.
// It returns false for matches that don't have a valid numeric location.
func warningFromMatch(m []string, lineIdx, colIdx, msgIdx int) (core.Warning, bool) {
	w := core.Warning{}
	if lineIdx < 1 || lineIdx >= len(m) {
		return w, false
	}
	line, err := strconv.Atoi(m[lineIdx])
	if err != nil {
		return w, false
	}
	w.Line = line
	if colIdx >= 1 && colIdx < len(m) && m[colIdx] != "" {
		col, err := strconv.Atoi(m[colIdx])
		if err != nil {
			return w, false
		}
		w.Col = col
	}
	if msgIdx >= 1 && msgIdx < len(m) {
		w.Message = m[msgIdx]
	}
	return w, true
}
