package config

import "time"

// Option 配置管理器选项
type Option func(*Manager)

// WithAppName 设置应用名称，用于默认配置文件名
func WithAppName(name string) Option {
	return func(m *Manager) {
		m.appName = name
	}
}

// WithSerializer 设置默认序列化器
func WithSerializer(s Serializer) Option {
	return func(m *Manager) {
		m.serializer = s
	}
}

// WithForceFormat 强制指定配置格式，无视文件后缀
func WithForceFormat(s Serializer) Option {
	return func(m *Manager) {
		m.forceFormat = s
	}
}

// WithDefaultPaths 设置默认配置文件查找路径模板
func WithDefaultPaths(paths ...string) Option {
	return func(m *Manager) {
		m.defaultPaths = paths
	}
}

// WithWatch 启用配置文件监听，interval 为重载防抖间隔
func WithWatch(enable bool, interval time.Duration) Option {
	return func(m *Manager) {
		m.enableWatch = enable
		if interval > 0 {
			m.debounce = interval
		}
	}
}
