package mysql

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/discussion_service/myErrors"
)

// InnoDB 在这两种情况下会回滚整个事务。
const (
	errLockWaitTimeout uint16 = 1205
	errLockDeadlock    uint16 = 1213
)

// forUpdate 行级写锁，事务提交或回滚前其他事务对同一行的加锁读会被阻塞。
var forUpdate = clause.Locking{Strength: "UPDATE"}

// normalizeNotFound 把 GORM 的未找到错误统一成 go-common 的仓库层错误。
func normalizeNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commonerrors.ErrRepoNotFound
	}
	return err
}

// normalizeLockError 死锁与锁等待超时转换为 Conflict，上层整体重跑事务即可。
func normalizeLockError(err error, entity string, id uint64) error {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && (mysqlErr.Number == errLockDeadlock || mysqlErr.Number == errLockWaitTimeout) {
		return myErrors.Conflict(entity, id)
	}
	return err
}

// normalizeLockedRead 加锁读取失败时同时处理未找到与锁冲突。
func normalizeLockedRead(err error, entity string, id uint64) error {
	return normalizeLockError(normalizeNotFound(err), entity, id)
}

// updateWithVersion 以 version 做 CAS 更新，并把 version 自增。
// 受影响行数为 0 说明记录已被其他事务修改（或已不存在），返回 Conflict。
func updateWithVersion(ctx context.Context, db *gorm.DB, model interface{}, entity string, id, version uint64, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	result := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if result.Error != nil {
		return normalizeLockError(result.Error, entity, id)
	}
	if result.RowsAffected == 0 {
		return myErrors.Conflict(entity, id)
	}
	return nil
}
