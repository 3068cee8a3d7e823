// Package idgen 提供进程级雪花 ID 生成
package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	initOnce sync.Once
)

// Init 初始化雪花节点，nodeID 取值范围 0-1023
func Init(nodeID int64) error {
	var err error
	initOnce.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenID 生成一个全局唯一 ID
func GenID() int64 {
	if node == nil {
		if err := Init(1); err != nil {
			panic(fmt.Sprintf("idgen: snowflake node init failed: %v", err))
		}
	}
	return node.Generate().Int64()
}

// GenIDString 生成字符串形式的唯一 ID
func GenIDString() string {
	return fmt.Sprintf("%d", GenID())
}
