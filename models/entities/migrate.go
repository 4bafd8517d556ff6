package entities

// Models 需要自动迁移的全部实体，InitMySQL、种子程序与测试共用。
func Models() []interface{} {
	return []interface{}{
		&Post{},
		&Reply{},
		&Vote{},
	}
}
