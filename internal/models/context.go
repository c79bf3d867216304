package models

// Context — ветка вокруг фокусного статуса в порядке отображения:
// Ancestors рисуются над ним (от корня), Descendants — под ним.
type Context struct {
	Ancestors   []Status
	Descendants []Status
}
