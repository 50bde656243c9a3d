package bolt

import "github.com/mesh-intelligence/movienight/pkg/types"

// Stored wrappers carry a sequence number so loads return records in the
// order they were saved; BoltHold iterates keys in byte order otherwise.

type movieRecord struct {
	Seq   int
	Movie types.Movie
}

type memoryRecord struct {
	Seq    int
	Memory types.Memory
}

type answerRecord struct {
	Seq    int
	Answer types.DiscussionAnswer
}
