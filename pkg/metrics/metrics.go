package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

// Metric names recorded by the shop.
const (
	MetricPurchase     = "shop_purchase"
	MetricRestock      = "shop_restock"
	MetricPurchaseFail = "shop_purchase_fail"
	MetricAPIRequest   = "shop_api_request"
	MetricSystemCPU    = "system_cpu_percent"
	MetricSystemMem    = "system_mem_percent"
	MetricProcessMem   = "process_mem_mb"
)

var (
	storage tstorage.Storage
	mu      sync.RWMutex
)

// InitMetrics opens the local time-series store under workdir/metrics.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// Counter records a single occurrence of the named metric.
func Counter(name string) {
	Gauge(name, 1)
}

// Gauge records an instantaneous value for the named metric.
func Gauge(name string, value float64) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return
	}
	_ = s.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// Range returns the datapoints for a metric between start and end (unix seconds).
func Range(name string, start, end int64) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return nil, nil
	}
	points, err := s.Select(name, nil, start, end)
	if err == tstorage.ErrNoDataPoints {
		return nil, nil
	}
	return points, err
}

// Close flushes and closes the metrics store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
