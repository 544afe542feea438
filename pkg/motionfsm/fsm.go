package motionfsm

import (
	"fmt"
	"sync"
	"time"
)

// FSM 驱动机器人运动流水线生命周期的有限状态机。
//
// 所有公开方法都是同步的，引擎内部没有任何后台协程。默认不加锁，
// 多协程并发访问前必须先调用 EnableThreadSafety(true)。启用线程安全后，
// 回调在持有内部锁的情况下执行，因此回调内禁止再调用本引擎的任何方法
// （递归 TriggerEvent 会死锁），这是设计约束。
type FSM struct {
	mu         sync.Mutex
	threadSafe bool
	running    bool

	current  SystemState
	previous SystemState

	table *transitionTable

	stateChangeCallback StateChangeCallback
	eventCallbacks      map[SystemEvent]EventCallback
	logCallback         LogCallback

	// waitCh 在每次转换提交和 Shutdown 时关闭并重建，
	// 等待者被唤醒后必须重新检查自己的谓词
	waitCh chan struct{}

	// executionProgress 预留的执行进度计数，当前没有任何转换逻辑读取它
	executionProgress int
}

// New 创建状态机实例：转换表构造时填充完毕，初始状态 IDLE，线程安全默认关闭，
// 默认日志输出到控制台。
func New() *FSM {
	f := &FSM{
		current:        StateIdle,
		previous:       StateIdle,
		table:          setupTransitionTable(),
		eventCallbacks: make(map[SystemEvent]EventCallback),
		waitCh:         make(chan struct{}),
	}
	f.logCallback = defaultLogCallback
	return f
}

// Initialize 初始化状态机，状态回到 IDLE 并标记为运行中
func (f *FSM) Initialize() bool {
	f.lock()
	defer f.unlock()

	f.current = StateIdle
	f.previous = StateIdle
	f.running = true
	f.executionProgress = 0

	f.logMessage("状态机初始化")
	return true
}

// Start 启动状态机，状态设置为 IDLE 并标记为运行中
func (f *FSM) Start() {
	f.lock()
	defer f.unlock()

	f.logMessage("启动状态机")
	f.running = true
	f.current = StateIdle
}

// Stop 停止状态机，等价于触发 STOP_REQUEST 事件
func (f *FSM) Stop() bool {
	return f.TriggerEvent(EventStopRequest)
}

// Reset 重置状态机：绕过转换表强制回到 IDLE，并触发一次状态变化回调
func (f *FSM) Reset() {
	f.lock()
	defer f.unlock()

	f.logMessage("重置状态机")
	f.previous = f.current
	f.current = StateIdle

	f.onStateChanged(f.previous, f.current)
}

// Shutdown 关闭状态机，标记为未运行并唤醒所有等待者。可重复调用。
func (f *FSM) Shutdown() {
	f.lock()
	defer f.unlock()

	f.logMessage("关闭状态机")
	f.running = false

	f.broadcast()
}

// TriggerEvent 触发一个事件，进行状态转换。
// 返回 false 表示转换被拒绝或被事件回调否决，当前状态保持不变。
func (f *FSM) TriggerEvent(event SystemEvent) bool {
	return f.TriggerEventWithData(event, "")
}

// TriggerEventWithData 触发一个事件，并附带额外数据。
// 数据原样传给事件回调，引擎本身不解析。
func (f *FSM) TriggerEventWithData(event SystemEvent, data string) bool {
	f.lock()
	defer f.unlock()
	return f.triggerEventInternal(event, data)
}

// triggerEventInternal 接收事件并判断能否执行转换，调用方必须已持有锁
func (f *FSM) triggerEventInternal(event SystemEvent, data string) bool {
	if !f.current.valid() {
		f.logMessage("未找到状态 " + f.current.String() + " 的转换表")
		return false
	}

	target, ok := f.table.lookup(f.current, event)
	if !ok {
		f.logMessage("状态 " + f.current.String() + " 不支持事件 " + event.String())
		return false
	}

	if cb, exists := f.eventCallbacks[event]; exists {
		if !f.invokeEventCallback(cb, event, data) {
			return false
		}
	}

	return f.executeTransition(f.current, target, event)
}

// invokeEventCallback 在故障边界内执行事件回调：
// 回调 panic 与返回 false 同等处理，记录日志并否决转换，绝不向调用方扩散
func (f *FSM) invokeEventCallback(cb EventCallback, event SystemEvent, data string) (pass bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logMessage(fmt.Sprintf("事件回调异常: %s: %v", event, r))
			pass = false
		}
	}()

	if !cb(event, data) {
		f.logMessage("事件回调否决转换: " + event.String())
		return false
	}
	return true
}

// executeTransition 执行状态转换。提交前再次校验转换表，
// previous/current 作为一对原子更新。
func (f *FSM) executeTransition(from, to SystemState, event SystemEvent) bool {
	if !f.table.isValid(from, to, event) {
		f.logMessage("无效转换: " + from.String() + " -> " + to.String())
		return false
	}

	f.previous = f.current
	f.current = to

	f.logMessage("状态转换: " + from.String() + " -> " + to.String())

	f.onStateChanged(f.previous, f.current)
	return true
}

// onStateChanged 在状态变化后调用：触发外部状态变化回调并唤醒等待者。
// 此时转换已提交，回调异常只记录日志，不回滚状态。
func (f *FSM) onStateChanged(oldState, newState SystemState) {
	if f.stateChangeCallback != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					f.logMessage(fmt.Sprintf("状态变化回调异常: %v", r))
				}
			}()
			f.stateChangeCallback(oldState, newState)
		}()
	}

	f.broadcast()
}

// CurrentState 返回当前状态
func (f *FSM) CurrentState() SystemState {
	f.lock()
	defer f.unlock()
	return f.current
}

// PreviousState 返回上一个状态
func (f *FSM) PreviousState() SystemState {
	f.lock()
	defer f.unlock()
	return f.previous
}

// CurrentStateName 返回当前状态的名称
func (f *FSM) CurrentStateName() string {
	f.lock()
	defer f.unlock()
	return f.current.String()
}

// IsInState 检查当前状态是否为指定状态
func (f *FSM) IsInState(state SystemState) bool {
	return f.CurrentState() == state
}

// CanTransition 检查当前状态是否可以通过指定事件进行转换
func (f *FSM) CanTransition(event SystemEvent) bool {
	f.lock()
	defer f.unlock()
	_, ok := f.table.lookup(f.current, event)
	return ok
}

// IsRunning 返回状态机是否处于运行中
func (f *FSM) IsRunning() bool {
	f.lock()
	defer f.unlock()
	return f.running
}

// SetStateChangeCallback 设置状态变化回调函数，后注册者覆盖先注册者
func (f *FSM) SetStateChangeCallback(callback StateChangeCallback) {
	f.lock()
	defer f.unlock()
	f.stateChangeCallback = callback
	f.logMessage("状态变化回调已注册")
}

// SetEventCallback 为指定事件设置回调函数，同一事件重复注册时覆盖
func (f *FSM) SetEventCallback(event SystemEvent, callback EventCallback) {
	f.lock()
	defer f.unlock()
	f.eventCallbacks[event] = callback
	f.logMessage("注册事件回调: " + event.String())
}

// SetLogCallback 设置日志回调函数，传入 nil 时关闭日志输出
func (f *FSM) SetLogCallback(callback LogCallback) {
	f.lock()
	defer f.unlock()
	f.logCallback = callback
}

// EnableThreadSafety 设置是否启用线程安全。
// 必须在并发使用之前设置，运行中切换是未定义行为。
func (f *FSM) EnableThreadSafety(enable bool) {
	f.threadSafe = enable
}

// WaitForState 等待状态机进入指定状态，timeout 为 0 表示无限等待。
// 仅在启用线程安全后有效；目标状态到达返回 true，
// 超时或状态机关闭时返回 false。
func (f *FSM) WaitForState(target SystemState, timeout time.Duration) bool {
	if !f.threadSafe {
		f.logMessage("等待状态功能需要先启用线程安全")
		return false
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		f.mu.Lock()
		if f.current == target {
			f.mu.Unlock()
			return true
		}
		if !f.running {
			f.mu.Unlock()
			return false
		}
		wake := f.waitCh
		f.mu.Unlock()

		// 广播会唤醒所有等待者，醒来后重新检查谓词
		select {
		case <-wake:
		case <-deadline:
			return false
		}
	}
}

// broadcast 唤醒所有等待者，调用方必须已持有锁
func (f *FSM) broadcast() {
	close(f.waitCh)
	f.waitCh = make(chan struct{})
}

// lock 在启用线程安全时加锁，否则不做任何事，避免无锁路径的额外开销
func (f *FSM) lock() {
	if f.threadSafe {
		f.mu.Lock()
	}
}

func (f *FSM) unlock() {
	if f.threadSafe {
		f.mu.Unlock()
	}
}

// logMessage 生成一条带毫秒时间戳的日志并交给日志回调
func (f *FSM) logMessage(message string) {
	if f.logCallback == nil {
		return
	}
	now := time.Now()
	f.logCallback("[" + now.Format("15:04:05.000") + "] " + message)
}

// defaultLogCallback 默认日志回调，将日志输出到控制台
func defaultLogCallback(message string) {
	fmt.Println("[FSM] " + message)
}
