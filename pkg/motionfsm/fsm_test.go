package motionfsm

import (
	"strings"
	"testing"
)

func TestFSM_InitialState(t *testing.T) {
	fsm := New()

	if fsm.CurrentState() != StateIdle {
		t.Errorf("初始状态错误: got %v, want IDLE", fsm.CurrentState())
	}
	if fsm.PreviousState() != StateIdle {
		t.Errorf("初始上一状态错误: got %v, want IDLE", fsm.PreviousState())
	}
	if fsm.IsRunning() {
		t.Error("未初始化的状态机不应处于运行中")
	}
}

func TestFSM_Initialize(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)

	if !fsm.Initialize() {
		t.Fatal("初始化失败")
	}
	if !fsm.IsRunning() {
		t.Error("初始化后状态机应处于运行中")
	}
	if fsm.CurrentState() != StateIdle {
		t.Errorf("初始化后状态错误: got %v, want IDLE", fsm.CurrentState())
	}
}

// 完整的运动流水线场景:
// IDLE -> MOVEIT_STARTING -> PLANNING -> OBSTACLE_DETECTED -> PLANNING -> EXECUTING -> IDLE
func TestFSM_MotionPipelineScenario(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	steps := []struct {
		event SystemEvent
		want  SystemState
	}{
		{EventStartMoveit, StateMoveitStarting},
		{EventMoveitReady, StatePlanning},
		{EventObstacleAppeared, StateObstacleDetected},
		{EventStartPlanning, StatePlanning},
		{EventPlanningSuccess, StateExecuting},
		{EventExecutionComplete, StateIdle},
	}

	for _, step := range steps {
		if !fsm.TriggerEvent(step.event) {
			t.Fatalf("触发事件 %v 失败, 当前状态 %v", step.event, fsm.CurrentState())
		}
		if fsm.CurrentState() != step.want {
			t.Fatalf("事件 %v 后状态错误: got %v, want %v", step.event, fsm.CurrentState(), step.want)
		}
	}
}

func TestFSM_RejectedEvent(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	// IDLE 状态不支持 MOVEIT_READY
	if fsm.TriggerEvent(EventMoveitReady) {
		t.Error("IDLE 状态不应接受 MOVEIT_READY 事件")
	}
	if fsm.CurrentState() != StateIdle {
		t.Errorf("拒绝事件后状态不应改变: got %v", fsm.CurrentState())
	}
	if fsm.PreviousState() != StateIdle {
		t.Errorf("拒绝事件后上一状态不应改变: got %v", fsm.PreviousState())
	}
}

// 表中不存在的 (状态, 事件) 组合一律返回 false 且状态不变
func TestFSM_AllRejectedPairsLeaveStateUnchanged(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	for s := SystemState(0); int(s) < stateCount; s++ {
		for e := SystemEvent(0); int(e) < eventCount; e++ {
			if _, ok := fsm.table.lookup(s, e); ok {
				continue
			}
			fsm.current = s
			if fsm.TriggerEvent(e) {
				t.Errorf("状态 %v 不应接受事件 %v", s, e)
			}
			if fsm.CurrentState() != s {
				t.Errorf("拒绝事件 %v 后状态改变: got %v, want %v", e, fsm.CurrentState(), s)
			}
		}
	}
}

// 表中存在的 (状态, 事件) 组合在无否决回调时一律成功
func TestFSM_AllDeclaredPairsTransition(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	for s := SystemState(0); int(s) < stateCount; s++ {
		for e := SystemEvent(0); int(e) < eventCount; e++ {
			target, ok := fsm.table.lookup(s, e)
			if !ok {
				continue
			}
			fsm.current = s
			if !fsm.TriggerEvent(e) {
				t.Errorf("状态 %v 应接受事件 %v", s, e)
			}
			if fsm.CurrentState() != target {
				t.Errorf("事件 %v 后状态错误: got %v, want %v", e, fsm.CurrentState(), target)
			}
			if fsm.PreviousState() != s {
				t.Errorf("事件 %v 后上一状态错误: got %v, want %v", e, fsm.PreviousState(), s)
			}
		}
	}
}

func TestFSM_EventCallbackVeto(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	fsm.SetEventCallback(EventStartMoveit, func(event SystemEvent, data string) bool {
		return false
	})

	if fsm.TriggerEvent(EventStartMoveit) {
		t.Error("被否决的事件不应转换成功")
	}
	if fsm.CurrentState() != StateIdle {
		t.Errorf("否决后状态不应改变: got %v", fsm.CurrentState())
	}
}

// 回调 panic 与返回 false 同等处理：记录日志、状态不变、不向调用方扩散
func TestFSM_EventCallbackPanic(t *testing.T) {
	fsm := New()
	fsm.Initialize()

	var logged []string
	fsm.SetLogCallback(func(msg string) {
		logged = append(logged, msg)
	})

	fsm.SetEventCallback(EventStartMoveit, func(event SystemEvent, data string) bool {
		panic("callback boom")
	})

	if fsm.TriggerEvent(EventStartMoveit) {
		t.Error("回调 panic 时转换不应成功")
	}
	if fsm.CurrentState() != StateIdle {
		t.Errorf("回调 panic 后状态不应改变: got %v", fsm.CurrentState())
	}

	found := false
	for _, msg := range logged {
		if strings.Contains(msg, "事件回调异常") {
			found = true
		}
	}
	if !found {
		t.Error("回调 panic 应产生日志")
	}
}

func TestFSM_EventCallbackReceivesData(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	var got string
	fsm.SetEventCallback(EventStartMoveit, func(event SystemEvent, data string) bool {
		got = data
		return true
	})

	if !fsm.TriggerEventWithData(EventStartMoveit, "trajectory-7") {
		t.Fatal("触发事件失败")
	}
	if got != "trajectory-7" {
		t.Errorf("事件回调收到的数据错误: got %q, want trajectory-7", got)
	}
}

// 同一事件重复注册回调时，后注册者覆盖先注册者
func TestFSM_EventCallbackOverwrite(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	fsm.SetEventCallback(EventStartMoveit, func(event SystemEvent, data string) bool {
		return false
	})
	fsm.SetEventCallback(EventStartMoveit, func(event SystemEvent, data string) bool {
		return true
	})

	if !fsm.TriggerEvent(EventStartMoveit) {
		t.Error("覆盖后的回调应放行转换")
	}
}

func TestFSM_StateChangeCallback(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	var gotOld, gotNew SystemState
	calls := 0
	fsm.SetStateChangeCallback(func(oldState, newState SystemState) {
		gotOld, gotNew = oldState, newState
		calls++
	})

	fsm.TriggerEvent(EventStartMoveit)

	if calls != 1 {
		t.Fatalf("状态变化回调调用次数错误: got %d, want 1", calls)
	}
	if gotOld != StateIdle || gotNew != StateMoveitStarting {
		t.Errorf("回调参数错误: got (%v, %v), want (IDLE, MOVEIT_STARTING)", gotOld, gotNew)
	}
}

// 状态变化回调 panic 不回滚已提交的转换
func TestFSM_StateChangeCallbackPanicDoesNotRollback(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	fsm.SetStateChangeCallback(func(oldState, newState SystemState) {
		panic("notify boom")
	})

	if !fsm.TriggerEvent(EventStartMoveit) {
		t.Error("状态变化回调 panic 不应导致转换失败")
	}
	if fsm.CurrentState() != StateMoveitStarting {
		t.Errorf("转换应已提交: got %v, want MOVEIT_STARTING", fsm.CurrentState())
	}
}

func TestFSM_Reset(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	fsm.TriggerEvent(EventStartMoveit)
	fsm.TriggerEvent(EventMoveitFailed)
	if fsm.CurrentState() != StateError {
		t.Fatalf("状态错误: got %v, want ERROR", fsm.CurrentState())
	}

	calls := 0
	fsm.SetStateChangeCallback(func(oldState, newState SystemState) {
		calls++
		if oldState != StateError || newState != StateIdle {
			t.Errorf("重置回调参数错误: got (%v, %v), want (ERROR, IDLE)", oldState, newState)
		}
	})

	fsm.Reset()

	if fsm.CurrentState() != StateIdle {
		t.Errorf("重置后状态错误: got %v, want IDLE", fsm.CurrentState())
	}
	if calls != 1 {
		t.Errorf("重置应触发一次状态变化回调: got %d", calls)
	}
}

func TestFSM_Stop(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	fsm.TriggerEvent(EventStartMoveit)
	if !fsm.Stop() {
		t.Error("MOVEIT_STARTING 状态下 Stop 应成功")
	}
	if fsm.CurrentState() != StateIdle {
		t.Errorf("Stop 后状态错误: got %v, want IDLE", fsm.CurrentState())
	}
}

// ERROR 状态下只有 RESET_REQUEST 和 STOP_REQUEST 能成功，且都回到 IDLE
func TestFSM_ErrorStateOnlyAcceptsResetAndStop(t *testing.T) {
	for e := SystemEvent(0); int(e) < eventCount; e++ {
		fsm := New()
		fsm.SetLogCallback(nil)
		fsm.Initialize()
		fsm.TriggerEvent(EventErrorOccurred)
		if fsm.CurrentState() != StateError {
			t.Fatalf("状态错误: got %v, want ERROR", fsm.CurrentState())
		}

		ok := fsm.TriggerEvent(e)
		if e == EventResetRequest || e == EventStopRequest {
			if !ok {
				t.Errorf("ERROR 状态应接受事件 %v", e)
			}
			if fsm.CurrentState() != StateIdle {
				t.Errorf("事件 %v 后状态错误: got %v, want IDLE", e, fsm.CurrentState())
			}
		} else {
			if ok {
				t.Errorf("ERROR 状态不应接受事件 %v", e)
			}
			if fsm.CurrentState() != StateError {
				t.Errorf("事件 %v 后状态应保持 ERROR: got %v", e, fsm.CurrentState())
			}
		}
	}
}

func TestFSM_CanTransition(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	if !fsm.CanTransition(EventStartMoveit) {
		t.Error("IDLE 状态应可触发 START_MOVEIT")
	}
	if fsm.CanTransition(EventMoveitReady) {
		t.Error("IDLE 状态不应可触发 MOVEIT_READY")
	}
	if fsm.CanTransition(EventObstacleCleared) {
		t.Error("OBSTACLE_CLEARED 为预留事件，任何状态都不应可触发")
	}
}

func TestFSM_Queries(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	if !fsm.IsInState(StateIdle) {
		t.Error("IsInState(IDLE) 应为 true")
	}
	if fsm.IsInState(StatePlanning) {
		t.Error("IsInState(PLANNING) 应为 false")
	}
	if fsm.CurrentStateName() != "IDLE" {
		t.Errorf("状态名称错误: got %q, want IDLE", fsm.CurrentStateName())
	}
}

func TestFSM_RejectionIsLogged(t *testing.T) {
	fsm := New()
	fsm.Initialize()

	var logged []string
	fsm.SetLogCallback(func(msg string) {
		logged = append(logged, msg)
	})

	fsm.TriggerEvent(EventMoveitReady)

	found := false
	for _, msg := range logged {
		if strings.Contains(msg, "不支持事件") && strings.Contains(msg, "MOVEIT_READY") {
			found = true
		}
	}
	if !found {
		t.Error("拒绝事件应产生日志")
	}
}

func TestFSM_ShutdownIdempotent(t *testing.T) {
	fsm := New()
	fsm.SetLogCallback(nil)
	fsm.Initialize()

	fsm.Shutdown()
	fsm.Shutdown()

	if fsm.IsRunning() {
		t.Error("关闭后状态机不应处于运行中")
	}
}
