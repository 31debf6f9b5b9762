package domain

import "strings"

// IsMemberCodeMissing treats an absent, empty or whitespace-only code as
// missing. Orders without a member code are processed with a delay.
func IsMemberCodeMissing(code *string) bool {
	return code == nil || strings.TrimSpace(*code) == ""
}
