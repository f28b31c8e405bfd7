package exposition

import (
	"sort"
	"strconv"
	"strings"
)

// Labels is an unordered set of label names to values.
type Labels map[string]string

type labelPair struct {
	name  string
	value string
}

// canonical returns the pairs sorted by name, then value.
func (l Labels) canonical() []labelPair {
	if len(l) == 0 {
		return nil
	}
	pairs := make([]labelPair, 0, len(l))
	for k, v := range l {
		pairs = append(pairs, labelPair{name: k, value: v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].name != pairs[j].name {
			return pairs[i].name < pairs[j].name
		}
		return pairs[i].value < pairs[j].value
	})
	return pairs
}

// seriesKey identifies one series. Every name and value is length-prefixed,
// so arbitrary bytes in label values cannot make two label sets collide.
func seriesKey(name string, pairs []labelPair) string {
	b := make([]byte, 0, 64)
	b = appendPart(b, name)
	for _, p := range pairs {
		b = appendPart(b, p.name)
		b = appendPart(b, p.value)
	}
	return string(b)
}

func appendPart(b []byte, s string) []byte {
	b = strconv.AppendInt(b, int64(len(s)), 10)
	b = append(b, ':')
	return append(b, s...)
}

// compareLabels orders label sets element by element, shorter prefix first.
func compareLabels(a, b []labelPair) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].name, b[i].name); c != 0 {
			return c
		}
		if c := strings.Compare(a[i].value, b[i].value); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// writeLabels writes {k1="v1",...}. extra pairs are written first, in the
// order given. Nothing is written for an empty set.
func writeLabels(b *strings.Builder, pairs []labelPair, extra ...labelPair) {
	if len(pairs) == 0 && len(extra) == 0 {
		return
	}
	b.WriteByte('{')
	first := true
	for _, set := range [][]labelPair{extra, pairs} {
		for _, p := range set {
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteString(p.name)
			b.WriteString(`="`)
			labelValueEscaper.WriteString(b, p.value)
			b.WriteByte('"')
		}
	}
	b.WriteByte('}')
}

// FormatLabels renders a label set the way Render does.
func FormatLabels(l Labels) string {
	var b strings.Builder
	writeLabels(&b, l.canonical())
	return b.String()
}
