// Package paging drains continuation-token paged sources into full result
// sets. Written once and shared by every listing path so pagination stays
// transparent to callers.
package paging

// Fetch returns one page of items plus the continuation token for the next
// page; an empty token means the source is exhausted. An empty token input
// requests the first page.
type Fetch[T any] func(token string) ([]T, string, error)

// Drain follows continuation tokens until the source is exhausted and
// returns the concatenation of all pages in source order. It assumes the
// source converges (tokens always advance); it does not detect cycles.
func Drain[T any](fetch Fetch[T]) ([]T, error) {
	var out []T
	token := ""
	for {
		items, next, err := fetch(token)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if next == "" {
			return out, nil
		}
		token = next
	}
}
