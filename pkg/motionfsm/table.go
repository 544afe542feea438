package motionfsm

// transitionEntry 转换表中的一格，ok 为 false 表示该 (状态, 事件) 组合被拒绝
type transitionEntry struct {
	to SystemState
	ok bool
}

// transitionTable 二维转换表，按状态、事件的稠密序号索引。
// 构造时填充一次，之后只读，不需要额外同步。
type transitionTable [stateCount][eventCount]transitionEntry

// add 登记一条转换规则
func (t *transitionTable) add(from SystemState, event SystemEvent, to SystemState) {
	t[from][event] = transitionEntry{to: to, ok: true}
}

// lookup 查询 (状态, 事件) 对应的目标状态
func (t *transitionTable) lookup(from SystemState, event SystemEvent) (SystemState, bool) {
	if !from.valid() || !event.valid() {
		return 0, false
	}
	entry := t[from][event]
	return entry.to, entry.ok
}

// isValid 检查 (from, event) -> to 是否为表中登记的转换
func (t *transitionTable) isValid(from SystemState, to SystemState, event SystemEvent) bool {
	target, ok := t.lookup(from, event)
	return ok && target == to
}

// setupTransitionTable 初始化状态转换表，定义状态与事件的关系。
// EventObstacleCleared 为预留事件，暂不登记任何转换。
func setupTransitionTable() *transitionTable {
	t := &transitionTable{}

	t.add(StateIdle, EventStartMoveit, StateMoveitStarting)
	t.add(StateIdle, EventResetRequest, StateIdle)
	t.add(StateIdle, EventErrorOccurred, StateError)

	t.add(StateMoveitStarting, EventMoveitReady, StatePlanning)
	t.add(StateMoveitStarting, EventMoveitFailed, StateError)
	t.add(StateMoveitStarting, EventErrorOccurred, StateError)
	t.add(StateMoveitStarting, EventStopRequest, StateIdle)

	t.add(StatePlanning, EventPlanningSuccess, StateExecuting)
	t.add(StatePlanning, EventPlanningFailed, StateError)
	t.add(StatePlanning, EventErrorOccurred, StateError)
	t.add(StatePlanning, EventObstacleAppeared, StateObstacleDetected)
	t.add(StatePlanning, EventStopRequest, StateIdle)

	t.add(StateExecuting, EventExecutionComplete, StateIdle)
	t.add(StateExecuting, EventObstacleAppeared, StateObstacleDetected)
	t.add(StateExecuting, EventStopRequest, StateIdle)
	t.add(StateExecuting, EventErrorOccurred, StateError)

	t.add(StateObstacleDetected, EventStartPlanning, StatePlanning)
	t.add(StateObstacleDetected, EventStopRequest, StateIdle)
	t.add(StateObstacleDetected, EventErrorOccurred, StateError)

	t.add(StateError, EventResetRequest, StateIdle)
	t.add(StateError, EventStopRequest, StateIdle)

	return t
}
