package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Folder{},
		&Document{},
		&DocumentPermission{},
		&DocumentShare{},
		&ActivityLog{},
	}
}
