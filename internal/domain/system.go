package domain

import "time"

type SysConfig struct {
	ID        int64     `json:"id,string" form:"id"`
	Sort      int       `json:"sort" form:"sort"`
	Type      string    `gorm:"index" json:"type" form:"type"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysConfig) TableName() string {
	return "sys_config"
}

type SysOpLog struct {
	ID       int64     `json:"id,string"`
	OpName   string    `json:"op_name"`
	OpIp     string    `json:"op_ip"`
	OpAction string    `json:"op_action"`
	OpDesc   string    `json:"op_desc"`
	OpTime   time.Time `json:"op_time"`
}

// TableName Specify table name
func (SysOpLog) TableName() string {
	return "sys_op_log"
}
