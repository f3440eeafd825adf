package domain

import "time"

// ShopScheduler is an operator-managed periodic task. Supported task
// types: low_stock_scan, oplog_prune.
type ShopScheduler struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"index" json:"name" form:"name"`
	TaskType    string    `gorm:"index" json:"task_type" form:"task_type"`
	Interval    int       `json:"interval" form:"interval"` // seconds
	Status      string    `json:"status" form:"status"`
	Config      string    `gorm:"size:2000" json:"config" form:"config"`
	Remark      string    `gorm:"size:500" json:"remark" form:"remark"`
	LastRunAt   time.Time `json:"last_run_at"`
	NextRunAt   time.Time `json:"next_run_at"`
	LastResult  string    `json:"last_result"`
	LastMessage string    `json:"last_message"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (ShopScheduler) TableName() string {
	return "shop_scheduler"
}
