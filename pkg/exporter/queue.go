package exporter

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// QueueCollector collects metrics about the build queue.
type QueueCollector struct {
	client   *jenkins.Client
	logger   *slog.Logger
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	config   config.Target
	now      func() time.Time

	Length    *prometheus.Desc
	Blocked   *prometheus.Desc
	Buildable *prometheus.Desc
	Stuck     *prometheus.Desc
	Waiting   *prometheus.Desc
}

// NewQueueCollector returns a new QueueCollector.
func NewQueueCollector(logger *slog.Logger, client *jenkins.Client, failures *prometheus.CounterVec, duration *prometheus.HistogramVec, cfg config.Target) *QueueCollector {
	if failures != nil {
		failures.WithLabelValues("queue").Add(0)
	}

	labels := []string{"id", "task", "class"}
	return &QueueCollector{
		client:   client,
		logger:   logger.With("collector", "queue"),
		failures: failures,
		duration: duration,
		config:   cfg,
		now:      time.Now,

		Length: prometheus.NewDesc(
			"jenkins_queue_length",
			"Number of items in the build queue",
			nil,
			nil,
		),
		Blocked: prometheus.NewDesc(
			"jenkins_queue_item_blocked",
			"1 if the queue item is blocked, 0 otherwise",
			labels,
			nil,
		),
		Buildable: prometheus.NewDesc(
			"jenkins_queue_item_buildable",
			"1 if the queue item is buildable, 0 otherwise",
			labels,
			nil,
		),
		Stuck: prometheus.NewDesc(
			"jenkins_queue_item_stuck",
			"1 if the queue item is stuck, 0 otherwise",
			labels,
			nil,
		),
		Waiting: prometheus.NewDesc(
			"jenkins_queue_item_waiting_seconds",
			"Seconds the queue item is waiting",
			labels,
			nil,
		),
	}
}

// Metrics simply returns the list metric descriptors for generating a documentation.
func (c *QueueCollector) Metrics() []*prometheus.Desc {
	return []*prometheus.Desc{
		c.Length,
		c.Blocked,
		c.Buildable,
		c.Stuck,
		c.Waiting,
	}
}

// Describe sends the super-set of all possible descriptors of metrics collected by this Collector.
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.Metrics() {
		ch <- desc
	}
}

// Collect is called by the Prometheus registry when collecting metrics.
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	now := time.Now()
	queue, err := c.client.Queue.Get(ctx)
	c.duration.WithLabelValues("queue").Observe(time.Since(now).Seconds())

	if err != nil {
		c.logger.Error("Failed to fetch queue",
			"err", err,
		)

		c.failures.WithLabelValues("queue").Inc()
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.Length,
		prometheus.GaugeValue,
		float64(len(queue.Items)),
	)

	for _, item := range queue.Items {
		task := item.Task.Name

		if path, ok := jenkins.ParsePath(c.client.Endpoint(), item.Task.URL).(jenkins.JobPath); ok {
			task = path.Name
		}

		labels := []string{
			strconv.FormatInt(item.ID, 10),
			task,
			item.Class,
		}

		ch <- prometheus.MustNewConstMetric(
			c.Blocked,
			prometheus.GaugeValue,
			boolToGauge(item.Blocked),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Buildable,
			prometheus.GaugeValue,
			boolToGauge(item.Buildable),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Stuck,
			prometheus.GaugeValue,
			boolToGauge(item.Stuck),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Waiting,
			prometheus.GaugeValue,
			item.Waiting(c.now()).Seconds(),
			labels...,
		)
	}
}
