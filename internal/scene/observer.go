package scene

// Subscription is the token returned by a Subscribe call.
// Calling Unsubscribe more than once is harmless.
type Subscription struct {
	cancel func()
}

// Unsubscribe detaches the observer that produced s.
func (s Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// observers is an ordered list of typed callbacks. Notification order is
// subscription order.
type observers[T any] struct {
	nextID int
	subs   []subscriber[T]
}

func (o *observers[T]) subscribe(fn func(T)) Subscription {
	id := o.nextID
	o.nextID++
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})
	return Subscription{cancel: func() { o.remove(id) }}
}

func (o *observers[T]) remove(id int) {
	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

// notify calls every observer with v. Observers added or removed during
// the fan-out take effect on the next notification.
func (o *observers[T]) notify(v T) {
	subs := o.subs
	for _, s := range subs {
		s.fn(v)
	}
}

func (o *observers[T]) len() int { return len(o.subs) }
