package discord

import "strings"

// Invocation is a parsed text-command invocation: the command word, its
// positional arguments and its --flags.
type Invocation struct {
	Command string
	Args    []string
	Flags   map[string]string
}

// ParseInvocation parses the message content after the prefix was stripped.
// Tokens are whitespace separated; double quotes group a token with spaces.
// A token of the form --name=value sets a valued flag, a bare --name sets a
// presence flag.
func ParseInvocation(input string) *Invocation {
	tokens := tokenize(input)
	inv := &Invocation{Flags: make(map[string]string)}
	if len(tokens) == 0 {
		return inv
	}

	inv.Command = strings.ToLower(tokens[0])
	for _, tok := range tokens[1:] {
		if strings.HasPrefix(tok, "--") && len(tok) > 2 {
			name, value, _ := strings.Cut(tok[2:], "=")
			inv.Flags[strings.ToLower(name)] = value
			continue
		}
		inv.Args = append(inv.Args, tok)
	}
	return inv
}

// tokenize splits on whitespace, keeping double-quoted groups together. An
// unterminated quote runs to the end of the input.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case (r == ' ' || r == '\t' || r == '\n') && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// HasFlag reports whether the flag was given at all
func (i *Invocation) HasFlag(name string) bool {
	_, ok := i.Flags[name]
	return ok
}

// Flag returns the flag's value, empty for presence flags and absent flags
func (i *Invocation) Flag(name string) string {
	return i.Flags[name]
}

// Arg returns the positional argument at an index, empty when out of range
func (i *Invocation) Arg(index int) string {
	if index < 0 || index >= len(i.Args) {
		return ""
	}
	return i.Args[index]
}

// Rest joins the positional arguments from an index onward. Free-form
// trailing text like suggestion bodies is read this way.
func (i *Invocation) Rest(from int) string {
	if from < 0 || from >= len(i.Args) {
		return ""
	}
	return strings.Join(i.Args[from:], " ")
}
