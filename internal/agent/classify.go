package agent

import "strings"

// Intent is the route chosen for one user message.
type Intent string

const (
	IntentRecommend Intent = "recommend"
	IntentChat      Intent = "chat"
)

// recommendKeywords are matched as case-insensitive substrings, so "findings"
// or "I don't recommend it" also route to recommendations.
var recommendKeywords = []string{"recommend", "suggest", "find", "looking for"}

// Classify routes a message to IntentRecommend when it contains any
// recommendation keyword and to IntentChat otherwise.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, kw := range recommendKeywords {
		if strings.Contains(lower, kw) {
			return IntentRecommend
		}
	}
	return IntentChat
}
