package config

// SourceConfig 单个数据源（主库或某个从库）。连接池字段为 nil 时沿用 MySQLConfig 上的共享值。
type SourceConfig struct {
	DSN             string `mapstructure:"dsn" yaml:"dsn"`
	MaxIdleConns    *int   `mapstructure:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	MaxOpenConns    *int   `mapstructure:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	ConnMaxLifetime *int   `mapstructure:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"` // 秒
}

// MySQLConfig 主库 + 可选从库列表。Read 为空表示不启用读写分离。
type MySQLConfig struct {
	Write SourceConfig   `mapstructure:"write" yaml:"write"`
	Read  []SourceConfig `mapstructure:"read" yaml:"read"`

	SharedMaxIdleConns    int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	SharedMaxOpenConns    int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	SharedConnMaxLifetime int `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // 秒
}

// PoolSettings 合并主库覆盖值与共享值，返回最终的连接池参数。
func (c MySQLConfig) PoolSettings() (maxIdle, maxOpen, maxLifetimeSeconds int) {
	maxIdle, maxOpen, maxLifetimeSeconds = c.SharedMaxIdleConns, c.SharedMaxOpenConns, c.SharedConnMaxLifetime
	if c.Write.MaxIdleConns != nil {
		maxIdle = *c.Write.MaxIdleConns
	}
	if c.Write.MaxOpenConns != nil {
		maxOpen = *c.Write.MaxOpenConns
	}
	if c.Write.ConnMaxLifetime != nil {
		maxLifetimeSeconds = *c.Write.ConnMaxLifetime
	}
	return maxIdle, maxOpen, maxLifetimeSeconds
}
