package treeview

import "testing"

func TestChildPath(t *testing.T) {
	testCases := []struct {
		parent   string
		key      string
		expected string
	}{
		{"root", "name", "root.name"},
		{"root.user", "email", "root.user.email"},
		{"root[2]", "id", "root[2].id"},
		{"root", "", "root."},
	}

	for _, tc := range testCases {
		actual := ChildPath(tc.parent, tc.key)
		if actual != tc.expected {
			t.Errorf("ChildPath(%q, %q) = %q, expected %q", tc.parent, tc.key, actual, tc.expected)
		}
	}
}

func TestIndexPath(t *testing.T) {
	testCases := []struct {
		parent   string
		index    int
		expected string
	}{
		{"root", 0, "root[0]"},
		{"root", 12, "root[12]"},
		{"root.items", 3, "root.items[3]"},
		{"root[1]", 0, "root[1][0]"},
	}

	for _, tc := range testCases {
		actual := IndexPath(tc.parent, tc.index)
		if actual != tc.expected {
			t.Errorf("IndexPath(%q, %d) = %q, expected %q", tc.parent, tc.index, actual, tc.expected)
		}
	}
}
