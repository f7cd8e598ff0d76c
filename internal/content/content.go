// Package content implements the byte-accurate retrieval primitives:
// line-ranged peeks, regex grep with context, and byte-offset chunking.
package content

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/codeindexd/codeindexd/internal/errs"
)

// Peek reads file and returns lines [start, end), 0-indexed with an
// exclusive end, prefixed with aligned 1-indexed line numbers. end is
// clipped to the line count.
func Peek(path string, start, end int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.IO, "read file", err)
	}
	lines := splitLines(data)
	total := len(lines)

	if start < 0 || start > end || start > total {
		return "", errs.New(errs.BadRange, fmt.Sprintf("invalid range [%d,%d) for %d lines", start, end, total))
	}
	if end > total {
		end = total
	}

	width := len(fmt.Sprintf("%d", total))
	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%*d\t%s\n", width, i+1, lines[i])
	}
	return b.String(), nil
}

// splitLines splits data on line boundaries without a trailing empty
// element for a final newline, matching how editors display line counts.
func splitLines(data []byte) []string {
	text := string(data)
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Match is a single grep hit with surrounding context lines.
type Match struct {
	File    string
	Line    int // 1-indexed
	Text    string
	Before  []string
	After   []string
}

// GrepResult is the outcome of a Grep call across a file set.
type GrepResult struct {
	Matches   []Match
	Truncated bool
}

// binarySniffWindow is how many leading bytes are checked for a NUL byte
// to decide whether a file is binary (spec §4.5).
const binarySniffWindow = 8 * 1024

// Grep compiles pattern as a regex and searches the given files in
// order, recording up to maxMatches hits with contextLines of
// surrounding text on each side. Binary files (NUL byte in the first 8
// KiB) are skipped silently.
func Grep(files []string, pattern string, maxMatches, contextLines int) (*GrepResult, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.Wrap(errs.BadPattern, "compile regex", err)
	}

	result := &GrepResult{}
	for _, path := range files {
		if result.Truncated {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if isBinary(data) {
			continue
		}
		lines := splitLines(data)
		for i, line := range lines {
			if !re.MatchString(line) {
				continue
			}
			// A match found once the cap is already reached means
			// total_matches > maxMatches: flag truncation without
			// appending it, so an exact-cap match count reports false.
			if len(result.Matches) >= maxMatches {
				result.Truncated = true
				break
			}
			m := Match{File: path, Line: i + 1, Text: line}
			if contextLines > 0 {
				lo := max(0, i-contextLines)
				hi := min(len(lines), i+contextLines+1)
				m.Before = append([]string{}, lines[lo:i]...)
				m.After = append([]string{}, lines[i+1:hi]...)
			}
			result.Matches = append(result.Matches, m)
		}
	}
	return result, nil
}

func isBinary(data []byte) bool {
	window := data
	if len(window) > binarySniffWindow {
		window = window[:binarySniffWindow]
	}
	return bytes.IndexByte(window, 0) >= 0
}

// Chunk is one byte-offset window over a file.
type Chunk struct {
	Index int
	Start int64
	End   int64
}

// ChunkIndices splits a file of byteLen bytes into chunks of size bytes
// with overlap bytes shared between consecutive chunks.
func ChunkIndices(byteLen int64, size, overlap int64) ([]Chunk, error) {
	if overlap >= size {
		return nil, errs.New(errs.BadChunking, fmt.Sprintf("overlap %d >= size %d", overlap, size))
	}
	if byteLen <= 0 {
		return nil, nil
	}

	var chunks []Chunk
	stride := size - overlap
	idx := 0
	for start := int64(0); start < byteLen; start += stride {
		end := start + size
		if end > byteLen {
			end = byteLen
		}
		chunks = append(chunks, Chunk{Index: idx, Start: start, End: end})
		idx++
		if end == byteLen {
			break
		}
	}
	return chunks, nil
}

// BufferedLineCount counts the lines in path without loading it fully
// into memory, used where only total_lines is needed.
func BufferedLineCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errs.Wrap(errs.IO, "open file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
