package domain

import "context"

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// WithTx 在单个数据库事务中执行 fn，事务句柄通过 context 下传，
	// 同进程内其他仓储在同一 context 下的写入加入同一事务
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Create 写入订单与订单行
	Create(ctx context.Context, order *Order) error
	CreatePayment(ctx context.Context, payment *Payment) error
	// GetByOrderNo 按订单号读取订单（含行与支付记录）
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	// ListByUser 用户订单，最新优先
	ListByUser(ctx context.Context, userID string, limit int) ([]*Order, error)
	ListAll(ctx context.Context, offset, limit int) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, orderNo string, status string) error
}

// EventPublisher 订单事件发布接口。
// 事件经 outbox 落库，与业务写入同事务提交，由后台中继投递到 Kafka。
type EventPublisher interface {
	PublishInTx(ctx context.Context, eventType string, key string, payload any) error
}
