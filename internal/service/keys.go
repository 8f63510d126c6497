package service

// 外部儲存使用的 key
const (
	CartKey     = "lumina_cart"
	CouponKey   = "lumina_coupon"
	OrdersKey   = "lumina_orders"
	CustomerKey = "lumina_customer"
)
