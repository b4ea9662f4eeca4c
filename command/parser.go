// Package command implements the terminal mini-language: a parser that maps
// one input line to a structured command and a dispatcher that executes it
// against the task store.
package command

import (
	"strings"

	"taskdash-api/domain"
)

// Parse maps a raw input line to a ParsedCommand. It never fails: fields whose
// syntax did not match are simply left unset, and an unrecognized first token
// becomes the action verbatim so dispatch can report it. Callers reject blank
// lines before parsing.
func Parse(line string) domain.ParsedCommand {
	tokens := strings.Fields(line)
	cmd := domain.ParsedCommand{}
	if len(tokens) == 0 {
		return cmd
	}
	cmd.Action = tokens[0]

	switch cmd.Action {
	case "add-task":
		cmd.Title = firstQuoted(line)
		flags := scanFlags(line)
		if f, ok := flags["priority"]; ok && !f.quoted {
			if p, valid := domain.ParsePriority(f.value); valid {
				cmd.Priority = p
			}
		}
		if f, ok := flags["category"]; ok && !f.quoted {
			if c, valid := domain.ParseCategory(f.value); valid {
				cmd.Category = c
			}
		}
		if f, ok := flags["due"]; ok && !f.quoted && matchesDatePattern(f.value) {
			cmd.DueDate = f.value
		}
		if f, ok := flags["description"]; ok && f.quoted {
			cmd.Description = f.value
		}

	case "complete-task", "delete-task":
		if len(tokens) > 1 {
			cmd.TaskID = tokens[1]
		}

	case "list-tasks":
		// The filter value is passed through unvalidated; unknown filters
		// behave like no filter downstream.
		if f, ok := flags1(line, "filter"); ok {
			cmd.Filter = f
		}
	}

	return cmd
}

type flagValue struct {
	value  string
	quoted bool
}

func flags1(line, key string) (string, bool) {
	if f, ok := scanFlags(line)[key]; ok && !f.quoted {
		return f.value, true
	}
	return "", false
}

// scanFlags extracts --key=value pairs from the line. Values are either bare
// words (up to the next space) or double-quoted spans. The first occurrence of
// a key wins; repeats are ignored.
func scanFlags(line string) map[string]flagValue {
	flags := make(map[string]flagValue)
	for i := 0; i < len(line); {
		if !strings.HasPrefix(line[i:], "--") || (i > 0 && !isSpace(line[i-1])) {
			i++
			continue
		}
		j := i + 2
		for j < len(line) && line[j] != '=' && !isSpace(line[j]) {
			j++
		}
		if j >= len(line) || line[j] != '=' {
			i = j
			continue
		}
		key := line[i+2 : j]
		j++

		var fv flagValue
		if j < len(line) && line[j] == '"' {
			end := strings.IndexByte(line[j+1:], '"')
			if end < 0 {
				// Unterminated quote: no value.
				i = j + 1
				continue
			}
			fv = flagValue{value: line[j+1 : j+1+end], quoted: true}
			j += end + 2
		} else {
			k := j
			for k < len(line) && !isSpace(line[k]) {
				k++
			}
			fv = flagValue{value: line[j:k]}
			j = k
		}

		if key != "" && fv.value != "" {
			if _, seen := flags[key]; !seen {
				flags[key] = fv
			}
		}
		i = j
	}
	return flags
}

// firstQuoted returns the first non-empty double-quoted span in the line,
// regardless of position. Adjacent quotes (an empty span) are skipped with the
// closing quote reconsidered as an opening one.
func firstQuoted(line string) string {
	p := strings.IndexByte(line, '"')
	for p >= 0 {
		rel := strings.IndexByte(line[p+1:], '"')
		if rel < 0 {
			return ""
		}
		q := p + 1 + rel
		if q > p+1 {
			return line[p+1 : q]
		}
		p = q
	}
	return ""
}

// matchesDatePattern reports whether s matches \d{4}-\d{2}-\d{2} exactly.
// Calendar validity is not checked here; that happens at the HTTP boundary.
func matchesDatePattern(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range []byte(s) {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
