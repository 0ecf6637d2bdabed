package sources

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// MaxInputBytes caps a single paste; exports of a few thousand comments stay well below it
const MaxInputBytes = 10 << 20

// FileSource reads pasted text from a file, or from stdin when the path is "-"
type FileSource struct {
	name  string
	path  string
	stdin io.Reader
}

// NewFileSource creates a source named after what it holds ("instagram", "nombres", ...)
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path, stdin: os.Stdin}
}

func (f *FileSource) GetName() string {
	return f.name
}

func (f *FileSource) IsEnabled() bool {
	return f.path != ""
}

func (f *FileSource) Read(ctx context.Context) (string, error) {
	if !f.IsEnabled() {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var r io.Reader
	if f.path == "-" {
		r = f.stdin
	} else {
		file, err := os.Open(f.path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s input: %w", f.name, err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(io.LimitReader(stripBOM(r), MaxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s input: %w", f.name, err)
	}
	if len(data) > MaxInputBytes {
		return "", fmt.Errorf("%s input is larger than %d bytes", f.name, MaxInputBytes)
	}
	return string(data), nil
}

// TextSource serves text that is already in memory, such as a command line argument
type TextSource struct {
	name string
	text string
}

// NewTextSource wraps literal text
func NewTextSource(name, text string) *TextSource {
	return &TextSource{name: name, text: text}
}

func (t *TextSource) GetName() string {
	return t.name
}

func (t *TextSource) IsEnabled() bool {
	return t.text != ""
}

func (t *TextSource) Read(ctx context.Context) (string, error) {
	return t.text, ctx.Err()
}

// stripBOM drops a leading UTF-8 byte order mark, common in Windows text exports
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
