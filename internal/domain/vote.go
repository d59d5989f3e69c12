package domain

// NextVote applies the vote transition rule: casting the current direction again
// clears the vote, anything else replaces it. Casting VoteNone always clears.
func NextVote(current, cast VoteDirection) VoteDirection {
	if cast != VoteNone && cast == current {
		return VoteNone
	}
	return cast
}

// ApplyVote moves the counters of q from the prev vote state to next.
// Decrements are floored at zero.
func ApplyVote(q *Quiz, prev, next VoteDirection) {
	if prev == next {
		return
	}
	switch prev {
	case VoteUp:
		q.Upvotes = max(0, q.Upvotes-1)
	case VoteDown:
		q.Downvotes = max(0, q.Downvotes-1)
	}
	switch next {
	case VoteUp:
		q.Upvotes++
	case VoteDown:
		q.Downvotes++
	}
}
