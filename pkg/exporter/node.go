package exporter

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// NodeCollector collects metrics about the nodes and their executors.
type NodeCollector struct {
	client   *jenkins.Client
	logger   *slog.Logger
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	config   config.Target

	BusyExecutors  *prometheus.Desc
	TotalExecutors *prometheus.Desc
	Online         *prometheus.Desc
	Temporarily    *prometheus.Desc
	Executors      *prometheus.Desc
	Busy           *prometheus.Desc
	DiskAvailable  *prometheus.Desc
	SwapAvailable  *prometheus.Desc
}

// NewNodeCollector returns a new NodeCollector.
func NewNodeCollector(logger *slog.Logger, client *jenkins.Client, failures *prometheus.CounterVec, duration *prometheus.HistogramVec, cfg config.Target) *NodeCollector {
	if failures != nil {
		failures.WithLabelValues("node").Add(0)
	}

	labels := []string{"name", "class"}
	return &NodeCollector{
		client:   client,
		logger:   logger.With("collector", "node"),
		failures: failures,
		duration: duration,
		config:   cfg,

		BusyExecutors: prometheus.NewDesc(
			"jenkins_busy_executors",
			"Number of executors running a build",
			nil,
			nil,
		),
		TotalExecutors: prometheus.NewDesc(
			"jenkins_total_executors",
			"Number of executors of all nodes",
			nil,
			nil,
		),
		Online: prometheus.NewDesc(
			"jenkins_node_online",
			"1 if the node is online, 0 otherwise",
			labels,
			nil,
		),
		Temporarily: prometheus.NewDesc(
			"jenkins_node_temporarily_offline",
			"1 if the node was taken offline on purpose, 0 otherwise",
			labels,
			nil,
		),
		Executors: prometheus.NewDesc(
			"jenkins_node_executors",
			"Number of executors of the node",
			labels,
			nil,
		),
		Busy: prometheus.NewDesc(
			"jenkins_node_busy_executors",
			"Number of executors of the node running a build",
			labels,
			nil,
		),
		DiskAvailable: prometheus.NewDesc(
			"jenkins_node_disk_available_bytes",
			"Free disk space in the workspace of the node",
			labels,
			nil,
		),
		SwapAvailable: prometheus.NewDesc(
			"jenkins_node_swap_available_bytes",
			"Free swap space of the node",
			labels,
			nil,
		),
	}
}

// Metrics simply returns the list metric descriptors for generating a documentation.
func (c *NodeCollector) Metrics() []*prometheus.Desc {
	return []*prometheus.Desc{
		c.BusyExecutors,
		c.TotalExecutors,
		c.Online,
		c.Temporarily,
		c.Executors,
		c.Busy,
		c.DiskAvailable,
		c.SwapAvailable,
	}
}

// Describe sends the super-set of all possible descriptors of metrics collected by this Collector.
func (c *NodeCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.Metrics() {
		ch <- desc
	}
}

// Collect is called by the Prometheus registry when collecting metrics.
func (c *NodeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	now := time.Now()
	nodes, err := c.client.Node.All(ctx)
	c.duration.WithLabelValues("node").Observe(time.Since(now).Seconds())

	if err != nil {
		c.logger.Error("Failed to fetch nodes",
			"err", err,
		)

		c.failures.WithLabelValues("node").Inc()
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.BusyExecutors,
		prometheus.GaugeValue,
		float64(nodes.BusyExecutors),
	)

	ch <- prometheus.MustNewConstMetric(
		c.TotalExecutors,
		prometheus.GaugeValue,
		float64(nodes.TotalExecutors),
	)

	for _, computer := range nodes.Computers {
		base := computer.Base()

		labels := []string{
			base.DisplayName,
			base.Class,
		}

		ch <- prometheus.MustNewConstMetric(
			c.Online,
			prometheus.GaugeValue,
			boolToGauge(!base.Offline),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Temporarily,
			prometheus.GaugeValue,
			boolToGauge(base.TemporarilyOffline),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Executors,
			prometheus.GaugeValue,
			float64(base.NumExecutors),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Busy,
			prometheus.GaugeValue,
			float64(base.BusyExecutors()),
			labels...,
		)

		if disk, ok := base.MonitorData.DiskSpace(); ok {
			ch <- prometheus.MustNewConstMetric(
				c.DiskAvailable,
				prometheus.GaugeValue,
				float64(disk.Size),
				labels...,
			)
		}

		if swap, ok := base.MonitorData.SwapSpace(); ok {
			ch <- prometheus.MustNewConstMetric(
				c.SwapAvailable,
				prometheus.GaugeValue,
				float64(swap.AvailableSwapSpace),
				labels...,
			)
		}
	}
}
