// ABOUTME: Pagination arithmetic shared by list queries and the CLI
// ABOUTME: total_items from the server is authoritative for page counts
package models

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// TotalPages returns ceil(total/size), with zero pages for an empty result.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PageLen is the number of items the server returns for pageNum.
func PageLen(total, pageNum, size int) int {
	if size <= 0 || pageNum < 0 {
		return 0
	}
	remaining := total - pageNum*size
	if remaining <= 0 {
		return 0
	}
	if remaining < size {
		return remaining
	}
	return size
}
