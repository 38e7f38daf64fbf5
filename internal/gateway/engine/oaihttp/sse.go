package oaihttp

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// sseData reads server-sent events from r and yields each event's data
// payload. Lines are read only as events are pulled. A read error other than
// EOF is yielded last.
func sseData(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		var dataLines []string

		flush := func() bool {
			if len(dataLines) == 0 {
				return true
			}
			data := strings.Join(dataLines, "\n")
			dataLines = nil
			return yield(data, nil)
		}

		for {
			line, err := br.ReadString('\n')
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
					return
				}
				if line = strings.TrimRight(line, "\r\n"); line != "" {
					dataLines = consumeLine(line, dataLines)
				}
				flush()
				return
			}
			line = strings.TrimRight(line, "\r\n")

			// Blank line ends event.
			if line == "" {
				if !flush() {
					return
				}
				continue
			}
			dataLines = consumeLine(line, dataLines)
		}
	}
}

// consumeLine handles one non-blank line. Comments, event names and ids are ignored.
func consumeLine(line string, dataLines []string) []string {
	if strings.HasPrefix(line, "data:") {
		return append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
	}
	return dataLines
}
