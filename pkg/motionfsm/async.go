package motionfsm

import (
	"context"
	"sync"
)

// AsyncEvent 异步事件，携带触发时附带的额外数据
type AsyncEvent struct {
	Event SystemEvent
	Data  string
}

// AsyncFSM 支持异步事件处理的运动状态机。
// 事件先进入缓冲队列，由单个工作协程按序触发，
// 因此内部 FSM 自动启用线程安全。
type AsyncFSM struct {
	*FSM
	eventQueue chan AsyncEvent
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewAsyncFSM 创建异步状态机，queueSize 为事件队列容量
func NewAsyncFSM(queueSize int) *AsyncFSM {
	f := New()
	f.EnableThreadSafety(true)
	return &AsyncFSM{
		FSM:        f,
		eventQueue: make(chan AsyncEvent, queueSize),
		stopCh:     make(chan struct{}),
	}
}

// Start 启动异步事件处理
func (a *AsyncFSM) Start() {
	a.wg.Add(1)
	go a.processEvents()
}

// StopAsync 停止异步事件处理并等待工作协程退出。
// 只停止队列处理，不改变状态机本身的运行标记。
func (a *AsyncFSM) StopAsync() {
	close(a.stopCh)
	a.wg.Wait()
}

// TriggerAsync 异步触发事件，队列满时阻塞直到入队或 ctx 取消
func (a *AsyncFSM) TriggerAsync(ctx context.Context, event SystemEvent) error {
	return a.TriggerAsyncWithData(ctx, event, "")
}

// TriggerAsyncWithData 异步触发事件并附带额外数据
func (a *AsyncFSM) TriggerAsyncWithData(ctx context.Context, event SystemEvent, data string) error {
	select {
	case a.eventQueue <- AsyncEvent{Event: event, Data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processEvents 处理事件队列
func (a *AsyncFSM) processEvents() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopCh:
			return
		case ev := <-a.eventQueue:
			_ = a.FSM.TriggerEventWithData(ev.Event, ev.Data)
		}
	}
}

// QueueLength 返回队列中待处理的事件数量
func (a *AsyncFSM) QueueLength() int {
	return len(a.eventQueue)
}
