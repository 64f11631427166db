package treeview

import "strconv"

// RootPath is the synthetic root node's path. It is a fixed literal, never
// produced by the child path builders.
const RootPath = "root"

// ChildPath returns the display path of an object property:
// parent + "." + key. Keys are not escaped, so a key containing the
// separator characters can produce an ambiguous path; callers accept that.
func ChildPath(parent, key string) string {
	return parent + "." + key
}

// IndexPath returns the display path of an array element:
// parent + "[" + index + "]".
func IndexPath(parent string, index int) string {
	return parent + "[" + strconv.Itoa(index) + "]"
}
