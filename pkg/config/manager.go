package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager 通用配置管理器，将配置文件加载到调用方提供的结构体指针
type Manager struct {
	mu       sync.RWMutex
	instance interface{} // 配置实例，必须为结构体指针

	configPath       string
	appName          string
	serializer       Serializer   // 当前使用的序列化器
	forceFormat      Serializer   // 强制指定的格式，优先级最高
	supportedFormats []Serializer // 支持的配置格式列表
	defaultPaths     []string     // 默认配置路径模板

	once    sync.Once
	loadErr error

	// 配置监听
	enableWatch bool
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	watchQuit   chan struct{}
	watchOnce   sync.Once

	// 配置变更回调
	callbacks []func(old, new interface{})
}

// NewManager 创建配置管理器，cfg 必须为结构体指针
func NewManager(cfg interface{}, options ...Option) *Manager {
	if cfg == nil {
		panic("config instance cannot be nil")
	}
	if reflect.ValueOf(cfg).Kind() != reflect.Ptr {
		panic("config instance must be a pointer")
	}

	m := &Manager{
		instance:         cfg,
		appName:          "motion-fsm",
		serializer:       &YAMLSerializer{},
		supportedFormats: []Serializer{&YAMLSerializer{}, &JSONSerializer{}, &INISerializer{}},
		defaultPaths: []string{
			"./{{.AppName}}",
			"{{.ExecDir}}/{{.AppName}}",
			"/etc/{{.AppName}}",
		},
		debounce:  500 * time.Millisecond,
		watchQuit: make(chan struct{}),
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

// Load 加载配置文件，customPath 为空时按默认路径模板查找。
// 只会真正加载一次，重复调用返回首次的结果。
func (m *Manager) Load(customPath string) error {
	m.once.Do(func() {
		var err error

		if customPath != "" {
			if err = validatePath(customPath); err != nil {
				m.loadErr = fmt.Errorf("invalid config path: %w", err)
				return
			}
			m.configPath = customPath
			m.chooseSerializer(customPath)
		} else {
			if m.configPath, err = m.findDefaultPath(); err != nil {
				m.loadErr = fmt.Errorf("default config not found: %w", err)
				return
			}
		}

		if err = m.parseFile(m.instance); err != nil {
			m.loadErr = fmt.Errorf("parse config failed: %w", err)
			return
		}

		applyEnvOverrides(m.instance)

		if m.enableWatch {
			_ = m.startWatch()
		}
	})

	return m.loadErr
}

// Get 获取配置实例
func (m *Manager) Get() (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.configPath == "" {
		return nil, errors.New("config not loaded, call Load first")
	}
	return m.instance, nil
}

// Reload 重新加载配置文件并触发变更回调
func (m *Manager) Reload() error {
	m.mu.RLock()
	path := m.configPath
	m.mu.RUnlock()

	if path == "" {
		return errors.New("config path not initialized")
	}
	if err := validatePath(path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	m.mu.Lock()

	// 先解析到新实例，避免解析失败时污染旧配置
	newInstance := reflect.New(reflect.ValueOf(m.instance).Elem().Type()).Interface()
	if err := m.parseFile(newInstance); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("reload config failed: %w", err)
	}
	applyEnvOverrides(newInstance)

	oldInstance := m.instance
	m.instance = newInstance
	m.loadErr = nil

	callbacks := make([]func(old, new interface{}), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	// 回调在锁外执行，允许回调内再次访问管理器
	for _, cb := range callbacks {
		cb(oldInstance, newInstance)
	}

	return nil
}

// OnChange 注册配置变更回调
func (m *Manager) OnChange(callback func(old, new interface{})) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Close 关闭配置管理器，停止文件监听
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
	}
	close(m.watchQuit)
}

// chooseSerializer 根据文件后缀选择序列化器，强制格式优先
func (m *Manager) chooseSerializer(path string) {
	if m.forceFormat != nil {
		m.serializer = m.forceFormat
		return
	}

	ext := filepath.Ext(path)
	for _, format := range m.supportedFormats {
		if format.FileExt() == ext {
			m.serializer = format
			return
		}
	}
	// 无匹配后缀时沿用默认序列化器
}

// findDefaultPath 遍历默认路径模板查找配置文件
func (m *Manager) findDefaultPath() (string, error) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	for _, tpl := range m.defaultPaths {
		base := strings.NewReplacer(
			"{{.AppName}}", m.appName,
			"{{.ExecDir}}", execDir,
		).Replace(tpl)

		if err := validatePath(base); err == nil {
			m.chooseSerializer(base)
			return base, nil
		}

		for _, format := range m.supportedFormats {
			full := base + format.FileExt()
			if err := validatePath(full); err == nil {
				m.serializer = format
				return full, nil
			}
		}
	}

	return "", errors.New("no valid config file found")
}

// parseFile 读取并反序列化配置文件
func (m *Manager) parseFile(dst interface{}) error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("read file failed: %w", err)
	}
	if err := m.serializer.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal failed (%s): %w", m.serializer.Name(), err)
	}
	return nil
}

// startWatch 启动配置文件监听，文件变化后防抖自动重载
func (m *Manager) startWatch() error {
	var err error
	m.watchOnce.Do(func() {
		m.watcher, err = fsnotify.NewWatcher()
		if err != nil {
			err = fmt.Errorf("create watcher failed: %w", err)
			return
		}
		if err = m.watcher.Add(m.configPath); err != nil {
			err = fmt.Errorf("add watch path failed: %w", err)
			return
		}

		go m.watchLoop(m.watcher)
	})
	return err
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher) {
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounceTimer.Reset(m.debounce)
			}

		case <-debounceTimer.C:
			if err := m.Reload(); err != nil {
				fmt.Printf("[CONFIG] auto reload failed: %v\n", err)
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}

		case <-m.watchQuit:
			return
		}
	}
}

// validatePath 校验配置路径合法性
func validatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("stat path failed: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}
