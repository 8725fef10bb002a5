package playlist

import "unicode/utf8"

// MaxTitleLength is the longest playlist title the remote side accepts, in characters.
const MaxTitleLength = 150

// ExceedsMaxLength reports whether title is too long to create remotely.
func ExceedsMaxLength(title string) bool {
	return utf8.RuneCountInString(title) > MaxTitleLength
}

// Diff compares the desired playlist ids against the stored playlist→item map.
// toInsert keeps the order of desired; toDelete maps playlist id to the item
// id that has to be removed. Neither input is modified.
func Diff(desired []string, actual map[string]string) (toInsert []string, toDelete map[string]string) {
	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if id == "" {
			continue
		}
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = struct{}{}
		if _, ok := actual[id]; !ok {
			toInsert = append(toInsert, id)
		}
	}
	toDelete = make(map[string]string)
	for id, item := range actual {
		if _, ok := want[id]; !ok {
			toDelete[id] = item
		}
	}
	return toInsert, toDelete
}

// ResolveSingle returns the only match, or fallback when there are zero or
// several.
func ResolveSingle(matches []string, fallback string) string {
	if len(matches) == 1 {
		return matches[0]
	}
	return fallback
}
