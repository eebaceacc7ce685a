package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptSource выдаёт одну строку ввода оператора на каждый запрос.
type PromptSource interface {
	// ReadEntry печатает приглашение и возвращает очищенный от пробелов
	// ответ; io.EOF означает конец сеанса.
	ReadEntry(prompt string) (string, error)
}

type readerPromptSource struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptSource оборачивает пару reader/writer (обычно stdin/stdout)
// в источник построчного ввода.
func NewPromptSource(in io.Reader, out io.Writer) PromptSource {
	return &readerPromptSource{in: bufio.NewScanner(in), out: out}
}

func (s *readerPromptSource) ReadEntry(prompt string) (string, error) {
	fmt.Fprintf(s.out, "\n%s", prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}
