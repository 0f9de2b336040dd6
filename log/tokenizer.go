package log

import "fmt"

// token is one key=value (or key=[a,b,c]) pair out of a log-output config
// line such as "file=/tmp/k6.log,level=info".
type token struct {
	key    string
	value  string
	inside byte
}

// tokenize splits a comma-separated key=value config line into tokens,
// treating commas inside a single '['...']' array value as part of the
// value rather than a separator.
func tokenize(input string) ([]token, error) {
	var tokens []token
	i, n := 0, len(input)

	for i < n {
		start := i
		for i < n && input[i] != '=' && input[i] != ',' {
			i++
		}
		key := input[start:i]

		if i >= n || input[i] == ',' {
			return nil, fmt.Errorf("key `%s` with no value", input[start:i])
		}

		i++ // skip '='

		if i < n && input[i] == '[' {
			i++ // skip '['
			valStart := i
			for i < n && input[i] != ']' {
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("array value for key `%s` didn't end", key)
			}
			value := input[valStart:i]
			i++ // skip ']'
			if i < n {
				if input[i] != ',' {
					return nil, fmt.Errorf("there was no ',' after an array with key '%s'", key)
				}
				i++ // skip ','
			}
			tokens = append(tokens, token{key: key, value: value, inside: '['})
			continue
		}

		valStart := i
		for i < n && input[i] != ',' {
			i++
		}
		value := input[valStart:i]
		if value == "" {
			return nil, fmt.Errorf("key `%s` with no value", input[start:i])
		}
		tokens = append(tokens, token{key: key, value: value})
		if i < n {
			i++ // skip ','
		}
	}

	return tokens, nil
}
