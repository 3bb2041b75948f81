package domain

import "fmt"

// IdempotencyKey derives the deduplication key for a subscribe/extend command.
// The format is "{userId}:{accountId}:{durationTypeId}:{requestId}"; an absent
// request id is substituted with the literal text "null".
func IdempotencyKey(userID, accountID, durationTypeID, requestID string) string {
	if requestID == "" {
		requestID = "null"
	}

	return fmt.Sprintf("%s:%s:%s:%s", userID, accountID, durationTypeID, requestID)
}
