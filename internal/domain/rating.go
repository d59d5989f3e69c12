package domain

import "sort"

// Rating is the net community score of a quiz. It is always derived, never stored.
func Rating(q Quiz) int {
	return q.Upvotes - q.Downvotes
}

// SortByRating orders quizzes by rating descending, then newest first, then by id.
// Both backends produce this exact ordering.
func SortByRating(quizzes []Quiz) {
	sort.SliceStable(quizzes, func(i, j int) bool {
		ri, rj := Rating(quizzes[i]), Rating(quizzes[j])
		if ri != rj {
			return ri > rj
		}
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID < quizzes[j].ID
	})
}
