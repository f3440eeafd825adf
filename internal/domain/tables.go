package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpLog{},
	&ShopScheduler{},
	// Shop
	&User{},
	&Sweet{},
	&Purchase{},
	&Restock{},
}
