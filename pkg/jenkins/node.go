package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
)

// Computer classes known to this package.
const (
	MasterComputerClass = "hudson.model.Hudson$MasterComputer"
	SlaveComputerClass  = "hudson.slaves.SlaveComputer"
)

// Names of the built-in node, which is addressed by a fixed path segment.
const (
	MasterNodeName       = "(built-in)"
	LegacyMasterNodeName = "(master)"
)

// Keys of the node monitors reported in MonitorData.
const (
	DiskSpaceMonitor      = "hudson.node_monitors.DiskSpaceMonitor"
	TemporarySpaceMonitor = "hudson.node_monitors.TemporarySpaceMonitor"
	SwapSpaceMonitor      = "hudson.node_monitors.SwapSpaceMonitor"
	ResponseTimeMonitor   = "hudson.node_monitors.ResponseTimeMonitor"
)

// Label is a node label.
type Label struct {
	Name string `json:"name"`
}

// Executor is a build slot of a node.
type Executor struct {
	Number            int         `json:"number"`
	Idle              bool        `json:"idle"`
	LikelyStuck       bool        `json:"likelyStuck"`
	Progress          int         `json:"progress"`
	CurrentExecutable *ShortBuild `json:"currentExecutable"`
}

// SpaceMonitorData is reported by the disk and temporary space monitors.
type SpaceMonitorData struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Timestamp int64  `json:"timestamp"`
}

// SwapSpaceMonitorData is reported by the swap space monitor.
type SwapSpaceMonitorData struct {
	AvailablePhysicalMemory int64 `json:"availablePhysicalMemory"`
	AvailableSwapSpace      int64 `json:"availableSwapSpace"`
	TotalPhysicalMemory     int64 `json:"totalPhysicalMemory"`
	TotalSwapSpace          int64 `json:"totalSwapSpace"`
}

// MonitorData holds the results of the node monitors by monitor class.
type MonitorData map[string]json.RawMessage

// Decode unmarshals the result of a monitor into v. Monitors without a
// result are reported as false.
func (m MonitorData) Decode(monitor string, v interface{}) (bool, error) {
	data, ok := m[monitor]

	if !ok || string(data) == "null" {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode monitor %s: %w", monitor, err)
	}

	return true, nil
}

// DiskSpace returns the free space of the workspace root.
func (m MonitorData) DiskSpace() (*SpaceMonitorData, bool) {
	result := &SpaceMonitorData{}

	if ok, err := m.Decode(DiskSpaceMonitor, result); !ok || err != nil {
		return nil, false
	}

	return result, true
}

// SwapSpace returns the memory usage of the node.
func (m MonitorData) SwapSpace() (*SwapSpaceMonitorData, bool) {
	result := &SwapSpaceMonitorData{}

	if ok, err := m.Decode(SwapSpaceMonitor, result); !ok || err != nil {
		return nil, false
	}

	return result, true
}

// Computer is implemented by every node variant.
type Computer interface {
	Base() *BaseComputer
}

// BaseComputer holds the fields every node shares.
type BaseComputer struct {
	Class               string      `json:"_class"`
	DisplayName         string      `json:"displayName"`
	Description         string      `json:"description"`
	Idle                bool        `json:"idle"`
	JNLPAgent           bool        `json:"jnlpAgent"`
	LaunchSupported     bool        `json:"launchSupported"`
	ManualLaunchAllowed bool        `json:"manualLaunchAllowed"`
	Offline             bool        `json:"offline"`
	TemporarilyOffline  bool        `json:"temporarilyOffline"`
	OfflineCauseReason  string      `json:"offlineCauseReason"`
	NumExecutors        int         `json:"numExecutors"`
	AssignedLabels      []Label     `json:"assignedLabels"`
	Executors           []Executor  `json:"executors"`
	MonitorData         MonitorData `json:"monitorData"`
}

// Base implements Computer.
func (c *BaseComputer) Base() *BaseComputer {
	return c
}

// BusyExecutors counts the executors running a build.
func (c *BaseComputer) BusyExecutors() int {
	result := 0

	for _, executor := range c.Executors {
		if !executor.Idle {
			result++
		}
	}

	return result
}

// CommonComputer is a node of a class without a registered type.
type CommonComputer struct {
	BaseComputer
	raw
}

// MasterComputer is the built-in node.
type MasterComputer struct {
	BaseComputer
}

// SlaveComputer is an agent.
type SlaveComputer struct {
	BaseComputer
}

var computerRegistry = newRegistry[Computer]("computer", fallback[Computer, CommonComputer])

func init() {
	RegisterComputerClass(MasterComputerClass, func() Computer { return &MasterComputer{} })
	RegisterComputerClass(SlaveComputerClass, func() Computer { return &SlaveComputer{} })
}

// RegisterComputerClass makes nodes of class decode into the value returned
// by factory, which must be a pointer.
func RegisterComputerClass(class string, factory func() Computer) {
	computerRegistry.register(class, factory)
}

// Computers decodes a heterogeneous list of nodes.
type Computers []Computer

// UnmarshalJSON implements json.Unmarshaler.
func (c *Computers) UnmarshalJSON(data []byte) error {
	items, err := computerRegistry.decodeList(data)

	if err != nil {
		return err
	}

	*c = items
	return nil
}

// ComputerSet lists all nodes.
type ComputerSet struct {
	Class          string    `json:"_class"`
	DisplayName    string    `json:"displayName"`
	BusyExecutors  int       `json:"busyExecutors"`
	TotalExecutors int       `json:"totalExecutors"`
	Computers      Computers `json:"computer"`
}

// NodeClient is a client for the nodes API.
type NodeClient struct {
	client *Client
}

// All returns every node with its executors.
func (c *NodeClient) All(ctx context.Context) (*ComputerSet, error) {
	result := &ComputerSet{}

	if err := c.client.Get(ctx, ComputersPath{}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Get returns a single node. The built-in node is reachable under both of
// its names.
func (c *NodeClient) Get(ctx context.Context, name string) (Computer, error) {
	var data json.RawMessage

	if err := c.client.Get(ctx, ComputerPath{Name: name}, nil, &data); err != nil {
		return nil, err
	}

	return computerRegistry.decode(data)
}

var (
	_ Computer = (*CommonComputer)(nil)
	_ Record   = (*CommonComputer)(nil)
)
