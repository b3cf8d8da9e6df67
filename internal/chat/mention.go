package chat

import "regexp"

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)

// ExtractMentions pulls @nickname tokens out of message content. The match
// is case-sensitive; duplicates collapse to the first occurrence, order
// preserved.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var mentions []string
	for _, m := range matches {
		nickname := m[1]
		if _, ok := seen[nickname]; ok {
			continue
		}
		seen[nickname] = struct{}{}
		mentions = append(mentions, nickname)
	}
	return mentions
}
