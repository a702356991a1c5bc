// Package errors renders enrich failures as user-facing CLI errors.
//
// CLIError carries a message, an actionable suggestion and optional
// details. Wrap recognises failures from the other enrich packages (not a
// repository, invalid configuration, missing provider token, rejected
// credentials, unreachable services) and converts them:
//
//	if err := run(); err != nil {
//	    fmt.Fprintln(os.Stderr, errors.Wrap(err))
//	}
//
// Messages come from an ErrorMessenger; DefaultMessenger is used unless
// WithMessenger supplies another.
package errors
