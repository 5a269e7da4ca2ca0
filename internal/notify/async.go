// Package notify 把工作协程的日志与状态转交给控制台, 工作协程永远不会因为通知而阻塞
package notify

import (
	"sync"
	"sync/atomic"
)

// Sink 接收会话通知
type Sink interface {
	OnLog(text string)
	OnStatus(text string)
	OnFinished()
}

type kind int

const (
	kindLog kind = iota
	kindStatus
	kindFinished
)

type event struct {
	kind kind
	text string
}

// Async 单个协程按顺序投递, 队列满时丢弃并计数
type Async struct {
	inner   Sink
	events  chan event
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

func NewAsync(inner Sink, size int) *Async {
	if size <= 0 {
		size = 256
	}
	a := &Async{
		inner:  inner,
		events: make(chan event, size),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) OnLog(text string) {
	a.post(event{kind: kindLog, text: text})
}

func (a *Async) OnStatus(text string) {
	a.post(event{kind: kindStatus, text: text})
}

func (a *Async) OnFinished() {
	a.post(event{kind: kindFinished})
}

// Dropped 因为队列已满被丢弃的通知数量
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Close 投递完队列中剩余的通知后返回
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *Async) post(e event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}

	select {
	case a.events <- e:
	default:
		a.dropped.Add(1)
	}
}

func (a *Async) loop() {
	defer close(a.done)
	for e := range a.events {
		switch e.kind {
		case kindLog:
			a.inner.OnLog(e.text)
		case kindStatus:
			a.inner.OnStatus(e.text)
		case kindFinished:
			a.inner.OnFinished()
		}
	}
}
