package entity

// Task is one labeling task: an ordered list of page image URLs.
type Task struct {
	ID   int      `json:"id,omitempty"`
	Data TaskData `json:"data"`
}

// TaskData is the task payload written by the page converter and sent by the labeling tool.
type TaskData struct {
	PDFName string   `json:"pdf_name,omitempty"`
	Pages   []string `json:"pages"`
}

// PageCount returns the number of pages across tasks.
func PageCount(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		n += len(t.Data.Pages)
	}
	return n
}
