package plan

import "go.viam.com/autosteer/guidepath"

// deque is a double-ended queue of primitives. front holds the leading elements in reverse order
// so both ends grow by appending.
type deque struct {
	front []guidepath.Primitive
	back  []guidepath.Primitive
}

func (d *deque) len() int {
	return len(d.front) + len(d.back)
}

func (d *deque) at(i int) guidepath.Primitive {
	if i < len(d.front) {
		return d.front[len(d.front)-1-i]
	}
	return d.back[i-len(d.front)]
}

func (d *deque) set(i int, p guidepath.Primitive) {
	if i < len(d.front) {
		d.front[len(d.front)-1-i] = p
		return
	}
	d.back[i-len(d.front)] = p
}

func (d *deque) pushFront(p guidepath.Primitive) {
	d.front = append(d.front, p)
}

func (d *deque) pushBack(p guidepath.Primitive) {
	d.back = append(d.back, p)
}

func (d *deque) popFront() {
	if len(d.front) > 0 {
		d.front[len(d.front)-1] = nil
		d.front = d.front[:len(d.front)-1]
		return
	}
	d.back[0] = nil
	d.back = d.back[1:]
}

func (d *deque) popBack() {
	if len(d.back) > 0 {
		d.back[len(d.back)-1] = nil
		d.back = d.back[:len(d.back)-1]
		return
	}
	d.front[0] = nil
	d.front = d.front[1:]
}

func (d *deque) slice() []guidepath.Primitive {
	out := make([]guidepath.Primitive, 0, d.len())
	for i := len(d.front) - 1; i >= 0; i-- {
		out = append(out, d.front[i])
	}
	return append(out, d.back...)
}

func (d *deque) reset(prims ...guidepath.Primitive) {
	d.front = nil
	d.back = append([]guidepath.Primitive(nil), prims...)
}
