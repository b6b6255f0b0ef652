package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Role identifies which side of the handshake a connection ran.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleRecipient Role = "recipient"
)

// HandshakeResult is the terminal outcome of one handshake attempt.
type HandshakeResult string

const (
	HandshakeOK   HandshakeResult = "ok"
	HandshakeFail HandshakeResult = "fail"
)

// Direction labels the two independent halves of an established channel.
type Direction string

const (
	DirIngress Direction = "ingress"
	DirEgress  Direction = "egress"
)

// ChannelObserver receives channel-level metric events.
type ChannelObserver interface {
	HandshakeStarted(role Role)
	Handshake(role Role, result HandshakeResult, d time.Duration)
	FrameRead(payloadBytes int)
	FrameWritten(payloadBytes int)
	TagCheckFailed(dir Direction)
}

type noopChannelObserver struct{}

func (noopChannelObserver) HandshakeStarted(Role)                          {}
func (noopChannelObserver) Handshake(Role, HandshakeResult, time.Duration) {}
func (noopChannelObserver) FrameRead(int)                                  {}
func (noopChannelObserver) FrameWritten(int)                               {}
func (noopChannelObserver) TagCheckFailed(Direction)                       {}

// NoopChannelObserver is a zero-cost observer used when metrics are disabled.
var NoopChannelObserver ChannelObserver = noopChannelObserver{}

// AtomicChannelObserver swaps its delegate at runtime.
type AtomicChannelObserver struct {
	once sync.Once
	v    atomic.Value
}

type channelObserverHolder struct {
	obs ChannelObserver
}

// NewAtomicChannelObserver returns an initialized atomic observer.
func NewAtomicChannelObserver() *AtomicChannelObserver {
	a := &AtomicChannelObserver{}
	a.once.Do(func() { a.v.Store(&channelObserverHolder{obs: NoopChannelObserver}) })
	return a
}

// Set replaces the delegate, falling back to the no-op observer on nil.
func (a *AtomicChannelObserver) Set(obs ChannelObserver) {
	if obs == nil {
		obs = NoopChannelObserver
	}
	a.once.Do(func() { a.v.Store(&channelObserverHolder{obs: NoopChannelObserver}) })
	a.v.Store(&channelObserverHolder{obs: obs})
}

func (a *AtomicChannelObserver) load() ChannelObserver {
	a.once.Do(func() { a.v.Store(&channelObserverHolder{obs: NoopChannelObserver}) })
	return a.v.Load().(*channelObserverHolder).obs
}

func (a *AtomicChannelObserver) HandshakeStarted(role Role) { a.load().HandshakeStarted(role) }
func (a *AtomicChannelObserver) Handshake(role Role, result HandshakeResult, d time.Duration) {
	a.load().Handshake(role, result, d)
}
func (a *AtomicChannelObserver) FrameRead(n int)              { a.load().FrameRead(n) }
func (a *AtomicChannelObserver) FrameWritten(n int)           { a.load().FrameWritten(n) }
func (a *AtomicChannelObserver) TagCheckFailed(dir Direction) { a.load().TagCheckFailed(dir) }
