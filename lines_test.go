package locations

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, s string, bufSize int) []string {
	t.Helper()
	sc := bufio.NewScanner(bufio.NewReaderSize(strings.NewReader(s), 16))
	sc.Buffer(make([]byte, 0, bufSize), 1<<20)
	sc.Split(scanUniversalLines)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestUniversalLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\rb\r", []string{"a", "b"}},
		{"a\r\rb", []string{"a", "", "b"}},
		{"a\n\r\nb", []string{"a", "", "b"}},
		{"a\r", []string{"a"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scanAll(t, tt.in, 64), "%q", tt.in)
	}
}

func TestUniversalLinesSplitCRLF(t *testing.T) {
	// a tiny buffer forces \r and \n into separate reads
	in := strings.Repeat("abcdefg\r\n", 20)
	lines := scanAll(t, in, 8)
	require.Len(t, lines, 20)
	for _, l := range lines {
		assert.Equal(t, "abcdefg", l)
	}
}

func TestLongLine(t *testing.T) {
	name := strings.Repeat("x", 200*1024)
	doc := parseString(t, "[Long]\n"+name+"    1.0    2.0    3.0\n")
	require.Len(t, doc, 1)
	require.Len(t, doc[0].Cities, 1)
	assert.Equal(t, name, doc[0].Cities[0].Name)
}
