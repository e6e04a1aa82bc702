package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func SessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}
