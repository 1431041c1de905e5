package arrangement

import "reflect"

// Selector derives the slice of state an observer cares about.
type Selector func(State) any

type subscription struct {
	id       int
	selector Selector
	last     any
	fn       func(any)
}

// observers notifies subscribers when their selected value changes.
type observers struct {
	nextID int
	subs   []*subscription
}

func (o *observers) add(st State, sel Selector, fn func(any)) func() {
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, &subscription{id: id, selector: sel, last: sel(st.Clone()), fn: fn})
	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) notify(st State) {
	for _, s := range append([]*subscription(nil), o.subs...) {
		v := s.selector(st.Clone())
		if reflect.DeepEqual(v, s.last) {
			continue
		}
		s.last = v
		s.fn(v)
	}
}
