package bus

import "sync/atomic"

// Loopback is an in-process broadcast medium. A single event-loop
// goroutine owns the endpoint set, so no mutexes are required; public
// methods communicate with the loop through channels.
type Loopback struct {
	joinCh  chan *loopEndpoint
	leaveCh chan *loopEndpoint
	sendCh  chan loopSend

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

type loopSend struct {
	from *loopEndpoint
	msg  Message
}

type loopEndpoint struct {
	lb   *Loopback
	recv chan Message
}

// NewLoopback starts an in-process broadcast medium.
func NewLoopback() *Loopback {
	lb := &Loopback{
		joinCh:  make(chan *loopEndpoint),
		leaveCh: make(chan *loopEndpoint),
		sendCh:  make(chan loopSend, 256),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go lb.run()
	return lb
}

func (lb *Loopback) run() {
	defer close(lb.stopped)

	endpoints := make(map[*loopEndpoint]struct{})
	for {
		select {
		case <-lb.stopCh:
			for ep := range endpoints {
				close(ep.recv)
			}
			return

		case ep := <-lb.joinCh:
			endpoints[ep] = struct{}{}

		case ep := <-lb.leaveCh:
			if _, ok := endpoints[ep]; ok {
				delete(endpoints, ep)
				close(ep.recv)
			}

		case s := <-lb.sendCh:
			for ep := range endpoints {
				if ep == s.from {
					continue // senders do not hear themselves
				}
				select {
				case ep.recv <- s.msg:
				default:
					// Receiver buffer full; drop. The medium is lossy.
				}
			}
		}
	}
}

// Join attaches a new endpoint.
func (lb *Loopback) Join() Channel {
	ep := &loopEndpoint{lb: lb, recv: make(chan Message, 64)}
	select {
	case lb.joinCh <- ep:
	case <-lb.stopped:
		close(ep.recv)
	}
	return ep
}

// Close shuts the medium down and closes every endpoint.
func (lb *Loopback) Close() {
	if lb.closed.CompareAndSwap(false, true) {
		close(lb.stopCh)
	}
	<-lb.stopped
}

func (ep *loopEndpoint) Publish(msg Message) error {
	select {
	case ep.lb.sendCh <- loopSend{from: ep, msg: msg}:
	case <-ep.lb.stopped:
	}
	return nil
}

func (ep *loopEndpoint) Receive() <-chan Message {
	return ep.recv
}

func (ep *loopEndpoint) Close() {
	select {
	case ep.lb.leaveCh <- ep:
	case <-ep.lb.stopped:
	}
}
