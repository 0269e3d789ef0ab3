package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"cryptostore/internal/domain/types"
)

const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitConfiguration = 2
	ExitValidation    = 3
	ExitStoreOpen     = 4
	ExitSerialization = 5
)

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch types.KindOf(err) {
	case types.KindConfiguration:
		return ExitConfiguration
	case types.KindValidation:
		return ExitValidation
	case types.KindStoreOpen:
		return ExitStoreOpen
	case types.KindSerialization:
		return ExitSerialization
	}
	return ExitGeneral
}

// hint returns a remediation line for errors the user can act on.
func hint(err error) string {
	switch {
	case types.ReasonOf(err) == types.ReasonWrongCredentials:
		return "check the passphrase or key file for this store"
	case types.ReasonOf(err) == types.ReasonCorrupted:
		return "the store file is unreadable; restore it from a backup"
	case types.IsConfiguration(err):
		return "see cryptostore --help"
	}
	return ""
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	if h := hint(err); h != "" {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("hint:"), h)
	}
}
