package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// RenderMessage substitutes event properties into the message template.
// Ordinal properties ("0", "1", ...) are treated as positional format
// arguments. Otherwise {Name} placeholders are replaced from the properties
// map, but only when every placeholder resolves; a single missing key
// returns the raw template unchanged. No other failure is masked.
func RenderMessage(event LogEvent) string {
	if args, ok := positionalArgs(event.Properties); ok && strings.Contains(event.MessageTemplate, "%") {
		return fmt.Sprintf(event.MessageTemplate, args...)
	}

	return renderNamed(event.MessageTemplate, event.Properties)
}

// positionalArgs collects consecutive ordinal properties starting at "0".
func positionalArgs(props Properties) ([]any, bool) {
	var args []any
	for {
		value, ok := props[strconv.Itoa(len(args))]
		if !ok {
			break
		}
		args = append(args, value)
	}

	return args, len(args) > 0
}

func renderNamed(template string, props Properties) string {
	placeholders := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(placeholders) == 0 {
		return template
	}

	for _, placeholder := range placeholders {
		if _, ok := props[placeholder[1]]; !ok {
			return template
		}
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		return fmt.Sprint(props[key])
	})
}
