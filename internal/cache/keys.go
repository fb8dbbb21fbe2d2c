package cache

import "strconv"

const (
	keyPrefix = "comments:"

	// AllTopLevelKey holds the snapshot of every top-level comment with replies.
	AllTopLevelKey = keyPrefix + "all"

	// AllCommentsPattern matches every comment key.
	AllCommentsPattern = keyPrefix + "*"
)

func CommentKey(id uint) string {
	return keyPrefix + strconv.FormatUint(uint64(id), 10)
}
