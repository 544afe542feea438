package motionfsm

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot 状态快照，仅在同一进程内有效
type Snapshot struct {
	State     SystemState            `json:"state"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// History 一次成功转换的历史记录
type History struct {
	From      SystemState `json:"from"`
	To        SystemState `json:"to"`
	Event     SystemEvent `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
}

// TrackedFSM 记录转换历史的运动状态机
type TrackedFSM struct {
	*FSM
	histMu  sync.Mutex
	history []History
}

// NewTrackedFSM 创建记录转换历史的状态机
func NewTrackedFSM() *TrackedFSM {
	return &TrackedFSM{
		FSM:     New(),
		history: make([]History, 0),
	}
}

// TriggerEvent 触发事件，成功时追加一条历史记录
func (p *TrackedFSM) TriggerEvent(event SystemEvent) bool {
	return p.TriggerEventWithData(event, "")
}

// TriggerEventWithData 触发事件并附带额外数据，成功时追加一条历史记录
func (p *TrackedFSM) TriggerEventWithData(event SystemEvent, data string) bool {
	from := p.FSM.CurrentState()
	if !p.FSM.TriggerEventWithData(event, data) {
		return false
	}

	p.histMu.Lock()
	p.history = append(p.history, History{
		From:      from,
		To:        p.FSM.CurrentState(),
		Event:     event,
		Timestamp: time.Now(),
	})
	p.histMu.Unlock()
	return true
}

// CreateSnapshot 创建当前状态的快照
func (p *TrackedFSM) CreateSnapshot(metadata map[string]interface{}) *Snapshot {
	return &Snapshot{
		State:     p.CurrentState(),
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// RestoreSnapshot 恢复状态快照，绕过转换表直接设置当前状态
func (p *TrackedFSM) RestoreSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if !snapshot.State.valid() {
		return fmt.Errorf("snapshot has unknown state: %d", snapshot.State)
	}

	p.FSM.lock()
	defer p.FSM.unlock()
	p.FSM.previous = p.FSM.current
	p.FSM.current = snapshot.State
	return nil
}

// GetHistory 获取转换历史的副本
func (p *TrackedFSM) GetHistory() []History {
	p.histMu.Lock()
	defer p.histMu.Unlock()
	return append([]History{}, p.history...)
}

// ClearHistory 清空转换历史
func (p *TrackedFSM) ClearHistory() {
	p.histMu.Lock()
	defer p.histMu.Unlock()
	p.history = p.history[:0]
}
