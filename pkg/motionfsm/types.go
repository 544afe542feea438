package motionfsm

import (
	"fmt"
	"strings"
)

// SystemState 表示运动流水线的系统状态
type SystemState int

const (
	// StateIdle 空闲状态，流水线的初始状态
	StateIdle SystemState = iota
	// StateMoveitStarting 规划器启动中
	StateMoveitStarting
	// StatePlanning 路径规划中
	StatePlanning
	// StateExecuting 轨迹执行中
	StateExecuting
	// StateObstacleDetected 检测到障碍物
	StateObstacleDetected
	// StateError 错误状态
	StateError

	stateCount int = iota
)

// SystemEvent 表示触发状态转换的系统事件
type SystemEvent int

const (
	// EventStartMoveit 请求启动规划器
	EventStartMoveit SystemEvent = iota
	// EventMoveitReady 规划器就绪
	EventMoveitReady
	// EventMoveitFailed 规划器启动失败
	EventMoveitFailed
	// EventStartPlanning 请求开始规划
	EventStartPlanning
	// EventPlanningSuccess 规划成功
	EventPlanningSuccess
	// EventPlanningFailed 规划失败
	EventPlanningFailed
	// EventExecutionComplete 执行完成
	EventExecutionComplete
	// EventObstacleAppeared 障碍物出现
	EventObstacleAppeared
	// EventObstacleCleared 障碍物清除（预留事件，当前没有任何转换使用）
	EventObstacleCleared
	// EventStopRequest 停止请求
	EventStopRequest
	// EventErrorOccurred 发生错误
	EventErrorOccurred
	// EventResetRequest 复位请求
	EventResetRequest

	eventCount int = iota
)

// StateChangeCallback 在状态转换提交后调用，不能否决转换
type StateChangeCallback func(oldState, newState SystemState)

// EventCallback 在转换提交前调用，返回 false 可否决本次转换。
// data 为触发事件时附带的额外数据，引擎本身不解析其内容。
type EventCallback func(event SystemEvent, data string) bool

// LogCallback 日志回调，每条转换、拒绝都会产生一行日志
type LogCallback func(message string)

// String 返回状态的名称，越界值返回 "UNKNOWN"
func (s SystemState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateMoveitStarting:
		return "MOVEIT_STARTING"
	case StatePlanning:
		return "PLANNING"
	case StateExecuting:
		return "EXECUTING"
	case StateObstacleDetected:
		return "OBSTACLE_DETECTED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// String 返回事件的名称，越界值返回 "UNKNOWN_EVENT"
func (e SystemEvent) String() string {
	switch e {
	case EventStartMoveit:
		return "START_MOVEIT"
	case EventMoveitReady:
		return "MOVEIT_READY"
	case EventMoveitFailed:
		return "MOVEIT_FAILED"
	case EventStartPlanning:
		return "START_PLANNING"
	case EventPlanningSuccess:
		return "PLANNING_SUCCESS"
	case EventPlanningFailed:
		return "PLANNING_FAILED"
	case EventExecutionComplete:
		return "EXECUTION_COMPLETE"
	case EventObstacleAppeared:
		return "OBSTACLE_APPEARED"
	case EventObstacleCleared:
		return "OBSTACLE_CLEARED"
	case EventStopRequest:
		return "STOP_REQUEST"
	case EventErrorOccurred:
		return "ERROR_OCCURRED"
	case EventResetRequest:
		return "RESET_REQUEST"
	default:
		return "UNKNOWN_EVENT"
	}
}

// StateToString 返回状态名称（与 String 等价的静态映射）
func StateToString(s SystemState) string {
	return s.String()
}

// EventToString 返回事件名称（与 String 等价的静态映射）
func EventToString(e SystemEvent) string {
	return e.String()
}

// ParseState 将状态名称解析回枚举值
func ParseState(name string) (SystemState, bool) {
	for s := SystemState(0); int(s) < stateCount; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// ParseEvent 将事件名称解析回枚举值
func ParseEvent(name string) (SystemEvent, bool) {
	for e := SystemEvent(0); int(e) < eventCount; e++ {
		if e.String() == name {
			return e, true
		}
	}
	return 0, false
}

// MarshalJSON 将状态序列化为名称字符串
func (s SystemState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON 从名称字符串反序列化状态
func (s *SystemState) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	parsed, ok := ParseState(name)
	if !ok {
		return fmt.Errorf("unknown state: %s", name)
	}
	*s = parsed
	return nil
}

// MarshalJSON 将事件序列化为名称字符串
func (e SystemEvent) MarshalJSON() ([]byte, error) {
	return []byte(`"` + e.String() + `"`), nil
}

// UnmarshalJSON 从名称字符串反序列化事件
func (e *SystemEvent) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	parsed, ok := ParseEvent(name)
	if !ok {
		return fmt.Errorf("unknown event: %s", name)
	}
	*e = parsed
	return nil
}

// valid 检查状态是否在枚举范围内
func (s SystemState) valid() bool {
	return s >= 0 && int(s) < stateCount
}

// valid 检查事件是否在枚举范围内
func (e SystemEvent) valid() bool {
	return e >= 0 && int(e) < eventCount
}
