package utils

import "strconv"

// ParsePage turns a pageNumber query value into a 1-based page; anything
// unparsable or below one is page one.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PageCount is ceil(total/size); zero items means zero pages.
func PageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
