// Package prompt читает ввод пользователя в терминале.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrMismatch = errors.New("пароли не совпадают")

// Все запросы читают stdin через один буфер: иначе первый же запрос
// заберёт в свой буфер строки, переданные скриптом для следующих.
var (
	input  = os.Stdin
	reader = bufio.NewReader(input)
)

// Password читает пароль без эха. Если stdin не терминал, читается одна строка:
// так пароль можно передать из скрипта.
func Password(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)

	fd := int(input.Fd())
	if !term.IsTerminal(fd) {
		return readLine(reader)
	}

	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(pw), nil
}

// NewPassword запрашивает пароль дважды.
func NewPassword() (string, error) {
	pw, err := Password("Новый пароль: ")
	if err != nil {
		return "", err
	}
	again, err := Password("Повторите пароль: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", ErrMismatch
	}
	return pw, nil
}

// Confirm задаёт вопрос да/нет. По умолчанию - нет.
func Confirm(question string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	answer, err := readLine(reader)
	if err != nil {
		return false, err
	}
	return parseAnswer(answer), nil
}

func parseAnswer(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "д", "да":
		return true
	}
	return false
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("ошибка чтения ввода: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
