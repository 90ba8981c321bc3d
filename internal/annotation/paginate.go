package annotation

// TotalPages returns ceil(n/pageSize) with a minimum of one page.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Paginate returns the 1-based page slice. Pages outside the valid range are
// clamped to the nearest boundary; the view layer disables navigation past
// either end, so clamping only matters after a filter shrinks the list.
func Paginate(records []*ImageRecord, pageSize, page int) []*ImageRecord {
	if len(records) == 0 || pageSize <= 0 {
		return nil
	}
	total := TotalPages(len(records), pageSize)
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
