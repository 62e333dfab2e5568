package jenkins

import (
	"encoding/json"
	"strings"
	"time"
)

// Build classes known to this package.
const (
	FreeStyleBuildClass      = "hudson.model.FreeStyleBuild"
	WorkflowRunClass         = "org.jenkinsci.plugins.workflow.job.WorkflowRun"
	MatrixBuildClass         = "hudson.matrix.MatrixBuild"
	MatrixRunClass           = "hudson.matrix.MatrixRun"
	MavenModuleSetBuildClass = "hudson.maven.MavenModuleSetBuild"
	MavenBuildClass          = "hudson.maven.MavenBuild"
	ExternalRunClass         = "hudson.model.ExternalRun"
)

// BuildStatus is the result of a finished build.
type BuildStatus string

// Results reported by Jenkins. Running builds have an empty result.
const (
	BuildSuccess  BuildStatus = "SUCCESS"
	BuildUnstable BuildStatus = "UNSTABLE"
	BuildFailure  BuildStatus = "FAILURE"
	BuildNotBuilt BuildStatus = "NOT_BUILT"
	BuildAborted  BuildStatus = "ABORTED"
)

// IsCompleted reports whether the status belongs to a finished build.
func (s BuildStatus) IsCompleted() bool {
	return s != ""
}

// ShortBuild is the reference to a build found in jobs and other builds.
type ShortBuild struct {
	Class  string `json:"_class,omitempty"`
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Artifact is a file archived by a build.
type Artifact struct {
	DisplayPath  string `json:"displayPath"`
	FileName     string `json:"fileName"`
	RelativePath string `json:"relativePath"`
}

// URL returns the download location of the artifact.
func (a Artifact) URL(build Build) string {
	return strings.TrimRight(build.Base().URL, "/") + "/artifact/" + a.RelativePath
}

// Build is implemented by every build variant.
type Build interface {
	Base() *BaseBuild
}

// BaseBuild holds the fields every build shares.
type BaseBuild struct {
	Class             string      `json:"_class"`
	URL               string      `json:"url"`
	Number            int         `json:"number"`
	ID                string      `json:"id"`
	DisplayName       string      `json:"displayName"`
	FullDisplayName   string      `json:"fullDisplayName"`
	Description       string      `json:"description"`
	Duration          int64       `json:"duration"`
	EstimatedDuration int64       `json:"estimatedDuration"`
	Timestamp         int64       `json:"timestamp"`
	Building          bool        `json:"building"`
	KeepLog           bool        `json:"keepLog"`
	QueueID           int64       `json:"queueId"`
	Result            BuildStatus `json:"result"`
	Actions           Actions     `json:"actions"`
	Artifacts         []Artifact  `json:"artifacts"`
	PreviousBuild     *ShortBuild `json:"previousBuild"`
	NextBuild         *ShortBuild `json:"nextBuild"`
}

// Base implements Build.
func (b *BaseBuild) Base() *BaseBuild {
	return b
}

// StartedAt returns the time the build was scheduled to start.
func (b *BaseBuild) StartedAt() time.Time {
	return time.UnixMilli(b.Timestamp)
}

// Elapsed returns the duration of a finished build.
func (b *BaseBuild) Elapsed() time.Duration {
	return time.Duration(b.Duration) * time.Millisecond
}

// Short returns the reference to this build.
func (b *BaseBuild) Short() ShortBuild {
	return ShortBuild{Class: b.Class, Number: b.Number, URL: b.URL}
}

// CommonBuild is a build of a class without a registered type.
type CommonBuild struct {
	BaseBuild
	raw
}

// FreeStyleBuild is a build of a freestyle project.
type FreeStyleBuild struct {
	BaseBuild
	BuiltOn   string        `json:"builtOn"`
	ChangeSet ChangeSetList `json:"changeSet"`
	Culprits  []ShortUser   `json:"culprits"`
}

// WorkflowRun is a build of a pipeline.
type WorkflowRun struct {
	BaseBuild
	ChangeSets []ChangeSetList `json:"changeSets"`
	Culprits   []ShortUser     `json:"culprits"`
	InProgress bool            `json:"inProgress"`
}

// MatrixBuild is the parent build of a matrix project.
type MatrixBuild struct {
	BaseBuild
	BuiltOn   string        `json:"builtOn"`
	ChangeSet ChangeSetList `json:"changeSet"`
	Culprits  []ShortUser   `json:"culprits"`
	Runs      []ShortBuild  `json:"runs"`
}

// MatrixRun is the build of a single matrix configuration.
type MatrixRun struct {
	BaseBuild
	BuiltOn   string        `json:"builtOn"`
	ChangeSet ChangeSetList `json:"changeSet"`
	Culprits  []ShortUser   `json:"culprits"`
}

// MavenModuleSetBuild is the build of a maven project.
type MavenModuleSetBuild struct {
	BaseBuild
	BuiltOn          string                         `json:"builtOn"`
	ChangeSet        ChangeSetList                  `json:"changeSet"`
	Culprits         []ShortUser                    `json:"culprits"`
	MavenArtifacts   *MavenAggregatedArtifactRecord `json:"mavenArtifacts"`
	MavenVersionUsed string                         `json:"mavenVersionUsed"`
}

// MavenBuild is the build of a single maven module.
type MavenBuild struct {
	BaseBuild
	BuiltOn        string               `json:"builtOn"`
	ChangeSet      ChangeSetList        `json:"changeSet"`
	Culprits       []ShortUser          `json:"culprits"`
	MavenArtifacts *MavenArtifactRecord `json:"mavenArtifacts"`
}

// ExternalRun is a run recorded by an external job.
type ExternalRun struct {
	BaseBuild
}

var buildRegistry = newRegistry[Build]("build", fallback[Build, CommonBuild])

func init() {
	RegisterBuildClass(FreeStyleBuildClass, func() Build { return &FreeStyleBuild{} })
	RegisterBuildClass(WorkflowRunClass, func() Build { return &WorkflowRun{} })
	RegisterBuildClass(MatrixBuildClass, func() Build { return &MatrixBuild{} })
	RegisterBuildClass(MatrixRunClass, func() Build { return &MatrixRun{} })
	RegisterBuildClass(MavenModuleSetBuildClass, func() Build { return &MavenModuleSetBuild{} })
	RegisterBuildClass(MavenBuildClass, func() Build { return &MavenBuild{} })
	RegisterBuildClass(ExternalRunClass, func() Build { return &ExternalRun{} })
}

// RegisterBuildClass makes builds of class decode into the value returned
// by factory, which must be a pointer.
func RegisterBuildClass(class string, factory func() Build) {
	buildRegistry.register(class, factory)
}

// DecodeBuild decodes a build into the variant registered for its class.
func DecodeBuild(data []byte) (Build, error) {
	return buildRegistry.decode(data)
}

// ChangeSetsOf returns the change sets of any build variant.
func ChangeSetsOf(build Build) []ChangeSetList {
	switch b := build.(type) {
	case *WorkflowRun:
		return b.ChangeSets
	case *FreeStyleBuild:
		return []ChangeSetList{b.ChangeSet}
	case *MatrixBuild:
		return []ChangeSetList{b.ChangeSet}
	case *MatrixRun:
		return []ChangeSetList{b.ChangeSet}
	case *MavenModuleSetBuild:
		return []ChangeSetList{b.ChangeSet}
	case *MavenBuild:
		return []ChangeSetList{b.ChangeSet}
	case *CommonBuild:
		var result struct {
			ChangeSet  *ChangeSetList  `json:"changeSet"`
			ChangeSets []ChangeSetList `json:"changeSets"`
		}

		if err := json.Unmarshal(b.RawJSON(), &result); err != nil {
			return nil
		}

		if result.ChangeSet != nil {
			return append(result.ChangeSets, *result.ChangeSet)
		}

		return result.ChangeSets
	}

	return nil
}

var (
	_ Build  = (*CommonBuild)(nil)
	_ Record = (*CommonBuild)(nil)
)
