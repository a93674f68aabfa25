/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: terminal.go
Description: Terminal detection for deciding whether to colour notices.
*/

package reporting

import (
	"os"

	"golang.org/x/term"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
