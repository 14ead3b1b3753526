package execpool

// Actor is a single-threaded executor: messages enqueued via Send are
// delivered to handle one at a time, in order, on one logical goroutine.
// Every stateful pipeline stage and the image processor bind to an Actor so
// their own state is touched by exactly one thread at a time, per spec.md
// §5's "Each stateful actor... binds to a single-threaded executor."
type Actor struct {
	mailbox chan func()
	done    chan struct{}
}

// NewActor starts an Actor with a bounded mailbox of the given capacity.
func NewActor(mailboxCapacity int) *Actor {
	if mailboxCapacity <= 0 {
		mailboxCapacity = 64
	}
	a := &Actor{
		mailbox: make(chan func(), mailboxCapacity),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	for fn := range a.mailbox {
		fn()
	}
	close(a.done)
}

// Send enqueues fn to run on the actor's single logical thread. Send does
// not wait for fn to execute.
func (a *Actor) Send(fn func()) {
	a.mailbox <- fn
}

// SendSync enqueues fn and blocks until it has executed, returning whatever
// fn returns via the reply channel — used for request/response messages
// like init/params spec.md §9 describes.
func SendSync[T any](a *Actor, fn func() T) T {
	reply := make(chan T, 1)
	a.Send(func() { reply <- fn() })
	return <-reply
}

// Stop closes the mailbox and waits for any in-flight message to finish.
// No further Send calls are permitted after Stop.
func (a *Actor) Stop() {
	close(a.mailbox)
	<-a.done
}
