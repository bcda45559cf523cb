package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
)

// ErrSignUpUnsupported is returned when the phone number has no account.
var ErrSignUpUnsupported = errors.New("phone number is not registered; sign up with an official client first")

// TerminalAuth answers the login flow from a terminal: the phone comes from
// configuration, the code and 2FA password are prompted for.
type TerminalAuth struct {
	phone      string
	in         *bufio.Reader
	out        io.Writer
	readSecret func() (string, error)
}

// NewTerminalAuth reads answers from in and writes prompts to out. When in is
// os.Stdin attached to a terminal, the password is read without echo.
func NewTerminalAuth(phone string, in io.Reader, out io.Writer) *TerminalAuth {
	a := &TerminalAuth{phone: phone, in: bufio.NewReader(in), out: out}
	a.readSecret = a.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		a.readSecret = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(a.out)
			return strings.TrimSpace(string(b)), err
		}
	}
	return a
}

var _ auth.UserAuthenticator = (*TerminalAuth)(nil)

// Phone returns the configured phone number.
func (a *TerminalAuth) Phone(_ context.Context) (string, error) {
	return a.phone, nil
}

// Code prompts for the login code sent by Telegram.
func (a *TerminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Fprintf(a.out, "Enter the code sent to %s: ", a.phone)
	code, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("read login code: %w", err)
	}
	if code == "" {
		return "", errors.New("empty login code")
	}
	return code, nil
}

// Password prompts for the two-step verification password.
func (a *TerminalAuth) Password(_ context.Context) (string, error) {
	fmt.Fprint(a.out, "Enter your two-step verification password: ")
	pw, err := a.readSecret()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// AcceptTermsOfService only occurs during sign-up, which is refused.
func (a *TerminalAuth) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	return &auth.SignUpRequired{TermsOfService: tos}
}

// SignUp is refused.
func (a *TerminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignUpUnsupported
}

func (a *TerminalAuth) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
