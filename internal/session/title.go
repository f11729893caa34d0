package session

// titleStack holds the human-readable labels scoping the operations of a
// request. The top element is the active title. Once a title has been
// pushed the stack never empties again: popping the last element is a
// no-op, so an attribution title always survives unbalanced pops.
type titleStack struct {
	items []string
}

func (t *titleStack) push(title string) {
	t.items = append(t.items, title)
}

func (t *titleStack) pop() {
	if len(t.items) <= 1 {
		return
	}
	t.items = t.items[:len(t.items)-1]
}

// top returns the active title, or "" when nothing was pushed yet.
func (t *titleStack) top() string {
	if len(t.items) == 0 {
		return ""
	}
	return t.items[len(t.items)-1]
}

func (t *titleStack) depth() int {
	return len(t.items)
}
