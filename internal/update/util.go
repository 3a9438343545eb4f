package update

import "strings"

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeAppleScript quotes s for use inside an AppleScript string literal.
func escapeAppleScript(s string) string {
	return appleScriptEscaper.Replace(s)
}
