package command

import "strings"

// Prefix is an optional marker before a command word. "!flip" and "flip"
// dispatch identically.
const Prefix = "!"

// ParseResult is one table command line split into its command word and
// positional arguments.
type ParseResult struct {
	// Command is the first word, lowercased with any Prefix removed.
	Command string
	// Args keep their original case; skill names are case-sensitive.
	Args []string
}

// Parse splits a line on whitespace into a command word and arguments.
//
// Postcondition: Command is empty when the line is blank or holds only Prefix.
// Args is nil when no arguments follow the command.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(strings.TrimPrefix(fields[0], Prefix))}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}
