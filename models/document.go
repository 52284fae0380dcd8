package models

// Document is a decoded circular: pages with reconstructed tables and
// positioned words.
type Document struct {
	Name  string
	Pages []Page
}

// Page holds one page's tables and words.
type Page struct {
	Number int
	Tables []Table
	Words  []Word
}

// Table is a grid of cell strings, row-major.
type Table [][]string

// Word is a text fragment with its position on the page. Top grows
// downwards from the top edge.
type Word struct {
	Text string
	X0   float64
	X1   float64
	Top  float64
	Size float64
}
