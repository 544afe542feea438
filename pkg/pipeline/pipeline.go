package pipeline

import (
	"context"
	"time"

	"github.com/junbin-yang/motion-fsm/pkg/config"
	"github.com/junbin-yang/motion-fsm/pkg/logger"
	"github.com/junbin-yang/motion-fsm/pkg/motionfsm"
)

// Config 运动流水线配置
type Config struct {
	Pipeline struct {
		QueueSize int `yaml:"queue_size" json:"queue_size" ini:"queue_size" env:"PIPELINE_QUEUE_SIZE"`
	} `yaml:"pipeline" json:"pipeline" ini:"pipeline"`

	Logger struct {
		Level string `yaml:"level" json:"level" ini:"level" env:"PIPELINE_LOG_LEVEL"`
		// Path 为空时输出到标准错误；非空时写入文件并按大小轮转
		Path string `yaml:"path" json:"path" ini:"path" env:"PIPELINE_LOG_PATH"`
	} `yaml:"logger" json:"logger" ini:"logger"`
}

// defaultConfig 无配置文件时的默认值
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Pipeline.QueueSize = 16
	cfg.Logger.Level = "info"
	return cfg
}

// Pipeline 运动流水线：配置、日志与状态机的组装层
type Pipeline struct {
	cfg     *Config
	log     logger.Logger
	fsm     *motionfsm.AsyncFSM
	manager *config.Manager
}

// New 创建运动流水线。configPath 为空时使用内置默认配置，
// 否则从配置文件加载（支持 yaml/json/ini，env 标签可覆盖）。
func New(configPath string) (*Pipeline, error) {
	cfg := defaultConfig()

	var manager *config.Manager
	if configPath != "" {
		manager = config.NewManager(cfg, config.WithAppName("motion-fsm"))
		if err := manager.Load(configPath); err != nil {
			return nil, err
		}
	}

	p := &Pipeline{cfg: cfg, manager: manager}
	p.log = newLogger(cfg)

	// 异步队列的工作协程与调用方并发访问状态机，线程安全始终开启
	p.fsm = motionfsm.NewAsyncFSM(cfg.Pipeline.QueueSize)

	// 状态机日志走统一的结构化日志
	p.fsm.SetLogCallback(func(msg string) {
		p.log.Info("[FSM] " + msg)
	})

	// 配置热更新只调整日志级别，状态机拓扑不可变
	if manager != nil {
		manager.OnChange(func(old, new interface{}) {
			p.log.SetLevel(parseLevel(new.(*Config).Logger.Level))
		})
	}

	return p, nil
}

// newLogger 根据配置构建日志实例
func newLogger(cfg *Config) logger.Logger {
	level := parseLevel(cfg.Logger.Level)
	if cfg.Logger.Path != "" {
		return logger.New(logger.NewProductionRotateBySize(cfg.Logger.Path), level)
	}
	return logger.New(nil, level)
}

// parseLevel 解析日志级别名称，未知名称回退到 info
func parseLevel(name string) logger.Level {
	switch name {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// Start 初始化状态机并启动异步事件处理
func (p *Pipeline) Start() bool {
	if !p.fsm.Initialize() {
		return false
	}
	p.fsm.Start()
	p.log.Info("运动流水线已启动", logger.Int("queue_size", p.cfg.Pipeline.QueueSize))
	return true
}

// Trigger 同步触发事件
func (p *Pipeline) Trigger(event motionfsm.SystemEvent) bool {
	return p.fsm.TriggerEvent(event)
}

// TriggerAsync 异步触发事件
func (p *Pipeline) TriggerAsync(ctx context.Context, event motionfsm.SystemEvent) error {
	return p.fsm.TriggerAsync(ctx, event)
}

// FSM 返回底层状态机，供注册回调等高级用法
func (p *Pipeline) FSM() *motionfsm.AsyncFSM {
	return p.fsm
}

// State 返回当前状态
func (p *Pipeline) State() motionfsm.SystemState {
	return p.fsm.CurrentState()
}

// WaitForState 等待流水线进入指定状态
func (p *Pipeline) WaitForState(target motionfsm.SystemState, timeout time.Duration) bool {
	return p.fsm.WaitForState(target, timeout)
}

// Close 停止事件处理并关闭状态机与配置监听
func (p *Pipeline) Close() {
	p.fsm.StopAsync()
	p.fsm.Shutdown()
	if p.manager != nil {
		p.manager.Close()
	}
	_ = p.log.Sync()
}
