package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule listings page by priority with the rule id as tie breaker, so the
// cursor is just "priority:id" in plain text.
func encodeCursor(priority int32, ruleID string) string {
	return fmt.Sprintf("%d:%s", priority, ruleID)
}

func decodeCursor(cursor string) (int32, string, error) {
	rawPriority, ruleID, found := strings.Cut(cursor, ":")
	if !found {
		return 0, "", fmt.Errorf("malformed cursor %q", cursor)
	}

	priority, err := strconv.ParseInt(rawPriority, 10, 32)
	if err != nil {
		return 0, "", err
	}

	return int32(priority), ruleID, nil
}
